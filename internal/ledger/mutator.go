// Package ledger turns user intents into atomic store batches and enforces
// the ledger's invariants: wallet balances move together with the
// transactions booked against them, allocations never exceed their income,
// and referenced wallets cannot be deleted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"gorm.io/gorm"
)

// Mutator applies ledger intents to the store.
type Mutator struct {
	store *store.Store
	log   *slog.Logger
}

func NewMutator(s *store.Store, log *slog.Logger) *Mutator {
	return &Mutator{store: s, log: logger.Component(log, "ledger")}
}

// Allocation routes part of an income into a goal.
type Allocation struct {
	GoalID     string
	AmountCent int64
}

// TransactionInput is a transaction to record.
type TransactionInput struct {
	AmountCent int64
	Type       models.TransactionType
	Category   string
	WalletID   string
	Date       time.Time
	Note       string
	Allocation *Allocation
}

// RecordTransaction validates in and then, in one batch, creates the
// transaction, moves the wallet balance by +amount (income) or -amount
// (expense), and adds the allocation to the goal.
func (m *Mutator) RecordTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if err := util.ValidateAmount(in.AmountCent); err != nil {
		return nil, invalid("amount", err.Error())
	}
	if !in.Type.Valid() {
		return nil, invalid("type", "must be income or expense")
	}
	category := strings.TrimSpace(in.Category)
	if err := util.ValidateCategory(category); err != nil {
		return nil, invalid("category", err.Error())
	}
	if len(in.Note) > 255 {
		return nil, invalid("note", "too long, max 255 characters")
	}
	if in.WalletID == "" {
		return nil, invalid("wallet_id", "wallet is required")
	}
	if in.Date.IsZero() {
		return nil, invalid("date", "date is required")
	}

	var wallet models.Wallet
	if err := m.store.Get(ctx, store.Wallets, userID, in.WalletID, &wallet); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("wallet_id", "wallet not found")
		}
		return nil, err
	}

	if a := in.Allocation; a != nil {
		if in.Type != models.Income {
			return nil, invalid("allocation", "only income can be allocated to a goal")
		}
		if a.GoalID == "" {
			return nil, invalid("allocation.goal_id", "goal is required")
		}
		if a.AmountCent <= 0 {
			return nil, invalid("allocation.amount", "must be positive")
		}
		if a.AmountCent > in.AmountCent {
			return nil, invalid("allocation.amount", "cannot exceed the transaction amount")
		}
		var goal models.Goal
		if err := m.store.Get(ctx, store.Goals, userID, a.GoalID, &goal); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, invalid("allocation.goal_id", "goal not found")
			}
			return nil, err
		}
		if !goal.Open() {
			return nil, invalid("allocation.goal_id", "goal already reached its target")
		}
	}

	tx := &models.Transaction{
		UserID:     userID,
		AmountCent: in.AmountCent,
		Type:       in.Type,
		Category:   category,
		Date:       in.Date.UTC(),
		Note:       in.Note,
		WalletID:   in.WalletID,
	}
	delta := in.AmountCent
	if in.Type == models.Expense {
		delta = -delta
	}

	ops := []store.Op{
		store.Create(store.Transactions, tx),
		store.Increment(store.Wallets, in.WalletID, "balance_cent", delta),
	}
	if a := in.Allocation; a != nil {
		tx.GoalID = a.GoalID
		tx.AllocatedCent = a.AmountCent
		ops = append(ops, store.Increment(store.Goals, a.GoalID, "saved_cent", a.AmountCent))
	}

	if err := m.store.Batch(ctx, userID, ops...); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	m.log.Debug("transaction recorded",
		logger.FieldUserID, userID,
		"transaction_id", tx.ID,
		"wallet_id", tx.WalletID,
		"delta", delta)
	return tx, nil
}

// WalletInput holds the editable fields of a wallet.
type WalletInput struct {
	Name        string
	Type        models.WalletType
	BalanceCent int64
}

func (in *WalletInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "name is required")
	}
	if len(in.Name) > 64 {
		return invalid("name", "too long, max 64 characters")
	}
	if !in.Type.Valid() {
		return invalid("type", "must be cash, bank or ewallet")
	}
	if in.BalanceCent > util.MaxAmountCent || in.BalanceCent < -util.MaxAmountCent {
		return invalid("balance", "amount too large")
	}
	return nil
}

func (m *Mutator) CreateWallet(ctx context.Context, userID string, in WalletInput) (*models.Wallet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	w := &models.Wallet{
		UserID:      userID,
		Name:        in.Name,
		Type:        in.Type,
		BalanceCent: in.BalanceCent,
	}
	if _, err := m.store.Add(ctx, store.Wallets, w); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return w, nil
}

// UpdateWallet replaces name, type and balance. The balance is a manual
// override; existing transactions are not reconciled.
func (m *Mutator) UpdateWallet(ctx context.Context, userID, id string, in WalletInput) (*models.Wallet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := m.store.Update(ctx, store.Wallets, userID, id, map[string]interface{}{
		"name":         in.Name,
		"type":         in.Type,
		"balance_cent": in.BalanceCent,
	})
	if err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}
	var w models.Wallet
	if err := m.store.Get(ctx, store.Wallets, userID, id, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWallet removes a wallet no transaction refers to. The reference
// check and the delete run in the same batch.
func (m *Mutator) DeleteWallet(ctx context.Context, userID, id string) error {
	err := m.store.Batch(ctx, userID,
		store.RequireNone(store.Transactions, "wallet_id", id),
		store.Delete(store.Wallets, id),
	)
	if errors.Is(err, store.ErrReferenced) {
		return fmt.Errorf("delete wallet %s: %w", id, ErrWalletHasTransactions)
	}
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

// GoalInput describes a new savings goal.
type GoalInput struct {
	Title      string
	TargetCent int64
	Deadline   *time.Time
}

func (m *Mutator) CreateGoal(ctx context.Context, userID string, in GoalInput) (*models.Goal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	if len(title) > 128 {
		return nil, invalid("title", "too long, max 128 characters")
	}
	if err := util.ValidateAmount(in.TargetCent); err != nil {
		return nil, invalid("target_amount", err.Error())
	}

	g := &models.Goal{
		UserID:     userID,
		Title:      title,
		TargetCent: in.TargetCent,
		Deadline:   utc(in.Deadline),
	}
	if _, err := m.store.Add(ctx, store.Goals, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

// DebtInput holds the editable fields of a debt.
type DebtInput struct {
	PersonName  string
	AmountCent  int64
	Type        models.DebtType
	DueDate     *time.Time
	Description string
}

func (in *DebtInput) validate() error {
	in.PersonName = strings.TrimSpace(in.PersonName)
	if in.PersonName == "" {
		return invalid("person_name", "name is required")
	}
	if len(in.PersonName) > 64 {
		return invalid("person_name", "too long, max 64 characters")
	}
	if err := util.ValidateAmount(in.AmountCent); err != nil {
		return invalid("amount", err.Error())
	}
	if !in.Type.Valid() {
		return invalid("type", "must be i_owe or owed_to_me")
	}
	if len(in.Description) > 255 {
		return invalid("description", "too long, max 255 characters")
	}
	return nil
}

func (m *Mutator) CreateDebt(ctx context.Context, userID string, in DebtInput) (*models.Debt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	d := &models.Debt{
		UserID:      userID,
		PersonName:  in.PersonName,
		AmountCent:  in.AmountCent,
		Type:        in.Type,
		DueDate:     utc(in.DueDate),
		Description: in.Description,
	}
	if _, err := m.store.Add(ctx, store.Debts, d); err != nil {
		return nil, fmt.Errorf("create debt: %w", err)
	}
	return d, nil
}

func (m *Mutator) UpdateDebt(ctx context.Context, userID, id string, in DebtInput) (*models.Debt, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := m.store.Update(ctx, store.Debts, userID, id, map[string]interface{}{
		"person_name": in.PersonName,
		"amount_cent": in.AmountCent,
		"type":        in.Type,
		"due_date":    utc(in.DueDate),
		"description": in.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}
	return m.debt(ctx, userID, id)
}

func (m *Mutator) DeleteDebt(ctx context.Context, userID, id string) error {
	if err := m.store.Delete(ctx, store.Debts, userID, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

// ToggleDebtPaid flips is_paid in place. It has no effect on wallets or
// goals.
func (m *Mutator) ToggleDebtPaid(ctx context.Context, userID, id string) (*models.Debt, error) {
	err := m.store.Update(ctx, store.Debts, userID, id, map[string]interface{}{
		"is_paid": gorm.Expr("NOT is_paid"),
	})
	if err != nil {
		return nil, fmt.Errorf("toggle debt: %w", err)
	}
	return m.debt(ctx, userID, id)
}

func (m *Mutator) debt(ctx context.Context, userID, id string) (*models.Debt, error) {
	var d models.Debt
	if err := m.store.Get(ctx, store.Debts, userID, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Restore replaces the user's whole ledger with l in one batch. Records are
// re-owned by userID whatever the source says.
func (m *Mutator) Restore(ctx context.Context, userID string, l *models.Ledger) error {
	wallets := make(map[string]bool, len(l.Wallets))
	for _, w := range l.Wallets {
		wallets[w.ID] = true
	}
	for _, t := range l.Transactions {
		if !wallets[t.WalletID] {
			return invalid("transactions", fmt.Sprintf("transaction %s refers to unknown wallet %s", t.ID, t.WalletID))
		}
	}

	ops := make([]store.Op, 0, len(store.Ledger)+len(l.Wallets)+len(l.Transactions)+len(l.Goals)+len(l.Debts))
	for _, coll := range store.Ledger {
		ops = append(ops, store.Purge(coll))
	}
	for i := range l.Wallets {
		w := l.Wallets[i]
		w.UserID = userID
		ops = append(ops, store.Create(store.Wallets, &w))
	}
	for i := range l.Transactions {
		t := l.Transactions[i]
		t.UserID = userID
		ops = append(ops, store.Create(store.Transactions, &t))
	}
	for i := range l.Goals {
		g := l.Goals[i]
		g.UserID = userID
		ops = append(ops, store.Create(store.Goals, &g))
	}
	for i := range l.Debts {
		d := l.Debts[i]
		d.UserID = userID
		ops = append(ops, store.Create(store.Debts, &d))
	}

	if err := m.store.Batch(ctx, userID, ops...); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	m.log.Info("ledger restored",
		logger.FieldUserID, userID,
		"wallets", len(l.Wallets),
		"transactions", len(l.Transactions))
	return nil
}

// Load reads the user's whole ledger.
func (m *Mutator) Load(ctx context.Context, userID string) (*models.Ledger, error) {
	var l models.Ledger
	if err := m.store.List(ctx, store.Wallets, userID, store.ByCreated, &l.Wallets); err != nil {
		return nil, err
	}
	if err := m.store.List(ctx, store.Transactions, userID, store.ByDate, &l.Transactions); err != nil {
		return nil, err
	}
	if err := m.store.List(ctx, store.Goals, userID, store.ByCreated, &l.Goals); err != nil {
		return nil, err
	}
	if err := m.store.List(ctx, store.Debts, userID, store.ByCreated, &l.Debts); err != nil {
		return nil, err
	}
	return &l, nil
}

// utc normalizes stored times so that SQLite compares and sorts them
// correctly as text.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
