package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/config"
	"github.com/muhfadtz/TrackFinance/internal/database"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
)

const owner = "user-1"

func setupTestMutator(t *testing.T) (*Mutator, *store.Store) {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "ledger.db"),
	})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	s := store.New(db, nil)
	return NewMutator(s, nil), s
}

func mustWallet(t *testing.T, m *Mutator, balance int64) *models.Wallet {
	t.Helper()
	w, err := m.CreateWallet(context.Background(), owner, WalletInput{Name: "Bank", Type: models.WalletBank, BalanceCent: balance})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

func mustGoal(t *testing.T, m *Mutator, target int64) *models.Goal {
	t.Helper()
	g, err := m.CreateGoal(context.Background(), owner, GoalInput{Title: "Trip", TargetCent: target})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func walletBalance(t *testing.T, s *store.Store, id string) int64 {
	t.Helper()
	var w models.Wallet
	if err := s.Get(context.Background(), store.Wallets, owner, id, &w); err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w.BalanceCent
}

func goalSaved(t *testing.T, s *store.Store, id string) int64 {
	t.Helper()
	var g models.Goal
	if err := s.Get(context.Background(), store.Goals, owner, id, &g); err != nil {
		t.Fatalf("get goal: %v", err)
	}
	return g.SavedCent
}

func countTransactions(t *testing.T, s *store.Store) int {
	t.Helper()
	var txs []models.Transaction
	if err := s.List(context.Background(), store.Transactions, owner, store.ByDate, &txs); err != nil {
		t.Fatal(err)
	}
	return len(txs)
}

func TestRecordTransaction_MovesBalance(t *testing.T) {
	m, s := setupTestMutator(t)
	ctx := context.Background()
	w := mustWallet(t, m, 10_000)

	if _, err := m.RecordTransaction(ctx, owner, TransactionInput{
		AmountCent: 2_500, Type: models.Income, Category: "Salary", WalletID: w.ID, Date: time.Now(),
	}); err != nil {
		t.Fatalf("income: %v", err)
	}
	if got := walletBalance(t, s, w.ID); got != 12_500 {
		t.Errorf("balance after income = %d, want 12500", got)
	}

	if _, err := m.RecordTransaction(ctx, owner, TransactionInput{
		AmountCent: 4_000, Type: models.Expense, Category: "Food", WalletID: w.ID, Date: time.Now(),
	}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if got := walletBalance(t, s, w.ID); got != 8_500 {
		t.Errorf("balance after expense = %d, want 8500", got)
	}
}

func TestRecordTransaction_Allocation(t *testing.T) {
	m, s := setupTestMutator(t)
	w := mustWallet(t, m, 0)
	g := mustGoal(t, m, 50_000)

	tx, err := m.RecordTransaction(context.Background(), owner, TransactionInput{
		AmountCent: 10_000, Type: models.Income, Category: "Salary", WalletID: w.ID, Date: time.Now(),
		Allocation: &Allocation{GoalID: g.ID, AmountCent: 2_000},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !tx.Allocated() || tx.AllocatedCent != 2_000 {
		t.Errorf("transaction allocation = %s/%d", tx.GoalID, tx.AllocatedCent)
	}
	if got := walletBalance(t, s, w.ID); got != 10_000 {
		t.Errorf("wallet = %d, want 10000", got)
	}
	if got := goalSaved(t, s, g.ID); got != 2_000 {
		t.Errorf("goal saved = %d, want 2000", got)
	}
}

func TestRecordTransaction_Validation(t *testing.T) {
	m, s := setupTestMutator(t)
	w := mustWallet(t, m, 1_000)
	g := mustGoal(t, m, 5_000)

	full, err := m.CreateGoal(context.Background(), owner, GoalInput{Title: "Done", TargetCent: 100})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.RecordTransaction(context.Background(), owner, TransactionInput{
		AmountCent: 100, Type: models.Income, Category: "Gifts", WalletID: w.ID, Date: time.Now(),
		Allocation: &Allocation{GoalID: full.ID, AmountCent: 100},
	}); err != nil {
		t.Fatal(err)
	}
	baseBalance := walletBalance(t, s, w.ID)
	baseCount := countTransactions(t, s)

	valid := func() TransactionInput {
		return TransactionInput{AmountCent: 500, Type: models.Income, Category: "Salary", WalletID: w.ID, Date: time.Now()}
	}

	tests := []struct {
		name  string
		edit  func(*TransactionInput)
		field string
	}{
		{"zero amount", func(in *TransactionInput) { in.AmountCent = 0 }, "amount"},
		{"negative amount", func(in *TransactionInput) { in.AmountCent = -5 }, "amount"},
		{"bad type", func(in *TransactionInput) { in.Type = "transfer" }, "type"},
		{"empty category", func(in *TransactionInput) { in.Category = " " }, "category"},
		{"no wallet", func(in *TransactionInput) { in.WalletID = "" }, "wallet_id"},
		{"unknown wallet", func(in *TransactionInput) { in.WalletID = "nope" }, "wallet_id"},
		{"no date", func(in *TransactionInput) { in.Date = time.Time{} }, "date"},
		{"allocation on expense", func(in *TransactionInput) {
			in.Type = models.Expense
			in.Allocation = &Allocation{GoalID: g.ID, AmountCent: 100}
		}, "allocation"},
		{"allocation exceeds amount", func(in *TransactionInput) {
			in.Allocation = &Allocation{GoalID: g.ID, AmountCent: 501}
		}, "allocation.amount"},
		{"zero allocation", func(in *TransactionInput) {
			in.Allocation = &Allocation{GoalID: g.ID, AmountCent: 0}
		}, "allocation.amount"},
		{"unknown goal", func(in *TransactionInput) {
			in.Allocation = &Allocation{GoalID: "nope", AmountCent: 100}
		}, "allocation.goal_id"},
		{"goal already reached", func(in *TransactionInput) {
			in.Allocation = &Allocation{GoalID: full.ID, AmountCent: 100}
		}, "allocation.goal_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.edit(&in)
			_, err := m.RecordTransaction(context.Background(), owner, in)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
			if got := walletBalance(t, s, w.ID); got != baseBalance {
				t.Errorf("wallet changed to %d", got)
			}
			if got := goalSaved(t, s, g.ID); got != 0 {
				t.Errorf("goal saved changed to %d", got)
			}
			if got := countTransactions(t, s); got != baseCount {
				t.Errorf("transactions = %d, want %d", got, baseCount)
			}
		})
	}
}

func TestRecordTransaction_OverSavingAllowed(t *testing.T) {
	m, s := setupTestMutator(t)
	w := mustWallet(t, m, 0)
	g := mustGoal(t, m, 1_000)

	if _, err := m.RecordTransaction(context.Background(), owner, TransactionInput{
		AmountCent: 5_000, Type: models.Income, Category: "Bonus", WalletID: w.ID, Date: time.Now(),
		Allocation: &Allocation{GoalID: g.ID, AmountCent: 3_000},
	}); err != nil {
		t.Fatal(err)
	}
	if got := goalSaved(t, s, g.ID); got != 3_000 {
		t.Errorf("saved = %d, want 3000", got)
	}
}

func TestRecordTransaction_OtherOwnersWallet(t *testing.T) {
	m, _ := setupTestMutator(t)
	w := mustWallet(t, m, 0)

	_, err := m.RecordTransaction(context.Background(), "someone-else", TransactionInput{
		AmountCent: 100, Type: models.Income, Category: "Other", WalletID: w.ID, Date: time.Now(),
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "wallet_id" {
		t.Errorf("err = %v, want wallet_id validation error", err)
	}
}

func TestRecordTransaction_ConcurrentSameWallet(t *testing.T) {
	m, s := setupTestMutator(t)
	w := mustWallet(t, m, 0)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := m.RecordTransaction(context.Background(), owner, TransactionInput{
					AmountCent: 100, Type: models.Income, Category: "Other", WalletID: w.ID, Date: time.Now(),
				})
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	if got := walletBalance(t, s, w.ID); got != 1_000 {
		t.Errorf("balance = %d, want 1000", got)
	}
	if got := countTransactions(t, s); got != 10 {
		t.Errorf("transactions = %d, want 10", got)
	}
}

func TestDeleteWallet(t *testing.T) {
	m, s := setupTestMutator(t)
	ctx := context.Background()

	empty := mustWallet(t, m, 0)
	if err := m.DeleteWallet(ctx, owner, empty.ID); err != nil {
		t.Fatalf("delete empty wallet: %v", err)
	}

	used := mustWallet(t, m, 0)
	if _, err := m.RecordTransaction(ctx, owner, TransactionInput{
		AmountCent: 700, Type: models.Income, Category: "Sales", WalletID: used.ID, Date: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	err := m.DeleteWallet(ctx, owner, used.ID)
	if !errors.Is(err, ErrWalletHasTransactions) {
		t.Fatalf("err = %v, want ErrWalletHasTransactions", err)
	}
	if got := walletBalance(t, s, used.ID); got != 700 {
		t.Errorf("wallet balance = %d, want 700", got)
	}
	if got := countTransactions(t, s); got != 1 {
		t.Errorf("transactions = %d, want 1", got)
	}

	if err := m.DeleteWallet(ctx, owner, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delete missing: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateWallet_OverridesBalance(t *testing.T) {
	m, _ := setupTestMutator(t)
	ctx := context.Background()
	w := mustWallet(t, m, 100)

	got, err := m.UpdateWallet(ctx, owner, w.ID, WalletInput{Name: " Savings ", Type: models.WalletEWallet, BalanceCent: 42})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Savings" || got.Type != models.WalletEWallet || got.BalanceCent != 42 {
		t.Errorf("wallet = %+v", got)
	}

	if _, err := m.UpdateWallet(ctx, owner, w.ID, WalletInput{Name: "", Type: models.WalletCash}); !IsValidation(err) {
		t.Errorf("empty name: err = %v", err)
	}
	if _, err := m.UpdateWallet(ctx, "other", w.ID, WalletInput{Name: "x", Type: models.WalletCash}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other owner: err = %v", err)
	}
}

func TestCreateGoal(t *testing.T) {
	m, _ := setupTestMutator(t)
	g := mustGoal(t, m, 999)
	if g.SavedCent != 0 || g.TargetCent != 999 {
		t.Errorf("goal = %+v", g)
	}
	if _, err := m.CreateGoal(context.Background(), owner, GoalInput{Title: "x", TargetCent: 0}); !IsValidation(err) {
		t.Errorf("zero target: err = %v", err)
	}
}

func TestToggleDebtPaid(t *testing.T) {
	m, s := setupTestMutator(t)
	ctx := context.Background()
	w := mustWallet(t, m, 300)

	d, err := m.CreateDebt(ctx, owner, DebtInput{PersonName: "Sam", AmountCent: 5_000, Type: models.IOwe})
	if err != nil {
		t.Fatal(err)
	}
	if d.IsPaid {
		t.Fatal("new debt is paid")
	}

	d, err = m.ToggleDebtPaid(ctx, owner, d.ID)
	if err != nil || !d.IsPaid {
		t.Fatalf("first toggle: paid=%v err=%v", d != nil && d.IsPaid, err)
	}
	d, err = m.ToggleDebtPaid(ctx, owner, d.ID)
	if err != nil || d.IsPaid {
		t.Fatalf("second toggle: paid=%v err=%v", d != nil && d.IsPaid, err)
	}

	if got := walletBalance(t, s, w.ID); got != 300 {
		t.Errorf("wallet changed to %d", got)
	}
	if got := countTransactions(t, s); got != 0 {
		t.Errorf("toggle created %d transactions", got)
	}
}

func TestUpdateDeleteDebt(t *testing.T) {
	m, _ := setupTestMutator(t)
	ctx := context.Background()

	d, err := m.CreateDebt(ctx, owner, DebtInput{PersonName: "Ana", AmountCent: 100, Type: models.OwedToMe})
	if err != nil {
		t.Fatal(err)
	}
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d, err = m.UpdateDebt(ctx, owner, d.ID, DebtInput{PersonName: "Ana", AmountCent: 250, Type: models.OwedToMe, DueDate: &due})
	if err != nil {
		t.Fatal(err)
	}
	if d.AmountCent != 250 || d.DueDate == nil || !d.DueDate.Equal(due) {
		t.Errorf("debt = %+v", d)
	}
	if _, err := m.UpdateDebt(ctx, owner, d.ID, DebtInput{PersonName: "Ana", AmountCent: 1, Type: "lent"}); !IsValidation(err) {
		t.Errorf("bad type: err = %v", err)
	}

	if err := m.DeleteDebt(ctx, owner, d.ID); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteDebt(ctx, owner, d.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestRestore(t *testing.T) {
	m, s := setupTestMutator(t)
	ctx := context.Background()
	w := mustWallet(t, m, 0)
	if _, err := m.RecordTransaction(ctx, owner, TransactionInput{
		AmountCent: 900, Type: models.Income, Category: "Salary", WalletID: w.ID, Date: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	saved, err := m.Load(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.CreateWallet(ctx, owner, WalletInput{Name: "Extra", Type: models.WalletCash}); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(ctx, owner, saved); err != nil {
		t.Fatalf("restore: %v", err)
	}

	got, err := m.Load(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Wallets) != 1 || len(got.Transactions) != 1 {
		t.Fatalf("restored %d wallets, %d transactions", len(got.Wallets), len(got.Transactions))
	}
	if got := walletBalance(t, s, w.ID); got != 900 {
		t.Errorf("balance = %d, want 900", got)
	}

	bad := &models.Ledger{Transactions: []models.Transaction{{ID: "t", WalletID: "ghost"}}}
	if err := m.Restore(ctx, owner, bad); !IsValidation(err) {
		t.Errorf("dangling wallet: err = %v", err)
	}
}
