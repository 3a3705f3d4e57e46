package aggregate

import (
	"time"

	"github.com/muhfadtz/TrackFinance/internal/models"
)

// GoalStatus pairs a goal with its progress.
type GoalStatus struct {
	models.Goal
	Progress float64 `json:"progress"`
}

// Summary is everything the dashboard shows.
type Summary struct {
	TotalBalanceCent     int64        `json:"total_balance_cent"`
	MonthlyNetIncomeCent int64        `json:"monthly_net_income_cent"`
	MonthlyExpenseCent   int64        `json:"monthly_expense_cent"`
	IOweCent             int64        `json:"i_owe_cent"`
	OwedToMeCent         int64        `json:"owed_to_me_cent"`
	Activity             []DayBucket  `json:"activity"`
	Goals                []GoalStatus `json:"goals"`
	WalletCount          int          `json:"wallet_count"`
	TransactionCount     int          `json:"transaction_count"`
}

// Summarize computes every dashboard figure from l. A windowDays below 1
// uses DefaultWindowDays.
func Summarize(l *models.Ledger, now time.Time, windowDays int) Summary {
	if windowDays < 1 {
		windowDays = DefaultWindowDays
	}

	s := Summary{
		TotalBalanceCent:     TotalBalance(l.Wallets),
		MonthlyNetIncomeCent: MonthlyNetIncome(l.Transactions, now),
		MonthlyExpenseCent:   MonthlyExpense(l.Transactions, now),
		Activity:             ActivitySeries(l.Transactions, now, windowDays),
		Goals:                make([]GoalStatus, 0, len(l.Goals)),
		WalletCount:          len(l.Wallets),
		TransactionCount:     len(l.Transactions),
	}
	s.IOweCent, s.OwedToMeCent = DebtTotals(l.Debts)
	for _, g := range l.Goals {
		s.Goals = append(s.Goals, GoalStatus{Goal: g, Progress: GoalProgress(g)})
	}
	return s
}
