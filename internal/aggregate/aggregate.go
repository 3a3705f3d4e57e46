// Package aggregate derives dashboard figures from a user's ledger. Every
// function is pure: the same records and the same now always give the same
// result, whatever order the records come in.
package aggregate

import (
	"sort"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the activity chart window.
const DefaultWindowDays = 30

// TotalBalance is the sum of all wallet balances.
func TotalBalance(wallets []models.Wallet) int64 {
	var sum int64
	for i := range wallets {
		sum += wallets[i].BalanceCent
	}
	return sum
}

// MonthStart is midnight of the first day of now's month, in now's location.
func MonthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}

// WindowStart is the first instant of a trailing window of days ending now.
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// MonthlyNetIncome is this month's income minus what was allocated from it
// to goals. A transaction exactly at the month start counts.
func MonthlyNetIncome(txs []models.Transaction, now time.Time) int64 {
	start := MonthStart(now)
	var sum int64
	for i := range txs {
		t := &txs[i]
		if t.Type != models.Income || t.Date.Before(start) {
			continue
		}
		sum += t.AmountCent
		if t.Allocated() {
			sum -= t.AllocatedCent
		}
	}
	return sum
}

// MonthlyExpense is the sum of this month's expenses.
func MonthlyExpense(txs []models.Transaction, now time.Time) int64 {
	start := MonthStart(now)
	var sum int64
	for i := range txs {
		t := &txs[i]
		if t.Type == models.Expense && !t.Date.Before(start) {
			sum += t.AmountCent
		}
	}
	return sum
}

// DayBucket holds one calendar day of activity.
type DayBucket struct {
	Day         string `json:"day"` // YYYY-MM-DD in the local time of now
	IncomeCent  int64  `json:"income_cent"`
	ExpenseCent int64  `json:"expense_cent"`
}

// ActivitySeries buckets the transactions of the trailing window by local
// calendar day. Only days with activity get a bucket; buckets are in
// chronological order.
func ActivitySeries(txs []models.Transaction, now time.Time, windowDays int) []DayBucket {
	start := WindowStart(now, windowDays)
	loc := now.Location()

	byDay := make(map[string]*DayBucket)
	for i := range txs {
		t := &txs[i]
		if t.Date.Before(start) {
			continue
		}
		day := t.Date.In(loc).Format("2006-01-02")
		b := byDay[day]
		if b == nil {
			b = &DayBucket{Day: day}
			byDay[day] = b
		}
		switch t.Type {
		case models.Income:
			b.IncomeCent += t.AmountCent
		case models.Expense:
			b.ExpenseCent += t.AmountCent
		}
	}

	out := make([]DayBucket, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// GoalProgress is saved/target, unbounded above 1.
func GoalProgress(g models.Goal) float64 {
	if g.TargetCent <= 0 {
		return 0
	}
	ratio := decimal.NewFromInt(g.SavedCent).DivRound(decimal.NewFromInt(g.TargetCent), 4)
	return ratio.InexactFloat64()
}

// DebtTotals sums unpaid debts by direction.
func DebtTotals(debts []models.Debt) (iOwe, owedToMe int64) {
	for i := range debts {
		d := &debts[i]
		if d.IsPaid {
			continue
		}
		switch d.Type {
		case models.IOwe:
			iOwe += d.AmountCent
		case models.OwedToMe:
			owedToMe += d.AmountCent
		}
	}
	return iOwe, owedToMe
}
