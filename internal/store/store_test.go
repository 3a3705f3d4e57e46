package store

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
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
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
	return New(db, nil)
}

func addWallet(t *testing.T, s *Store, owner string, balance int64) *models.Wallet {
	t.Helper()
	w := &models.Wallet{UserID: owner, Name: "Cash", Type: models.WalletCash, BalanceCent: balance}
	if _, err := s.Add(context.Background(), Wallets, w); err != nil {
		t.Fatalf("add wallet: %v", err)
	}
	return w
}

func TestAddGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	w := addWallet(t, s, "alice", 1000)
	if w.ID == "" {
		t.Fatal("Add did not assign an id")
	}

	var got models.Wallet
	if err := s.Get(ctx, Wallets, "alice", w.ID, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BalanceCent != 1000 || got.Name != "Cash" {
		t.Errorf("got %+v", got)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	w := addWallet(t, s, "alice", 1000)

	var got models.Wallet
	if err := s.Get(ctx, Wallets, "bob", w.ID, &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get as other owner: err = %v, want ErrNotFound", err)
	}
	if err := s.Increment(ctx, Wallets, "bob", w.ID, "balance_cent", 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("Increment as other owner: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, Wallets, "bob", w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete as other owner: err = %v, want ErrNotFound", err)
	}

	var list []models.Wallet
	if err := s.List(ctx, Wallets, "bob", ByCreated, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d wallets", len(list))
	}

	if err := s.List(ctx, Wallets, "", ByCreated, &list); !errors.Is(err, ErrNoOwner) {
		t.Errorf("empty owner: err = %v, want ErrNoOwner", err)
	}

	foreign := &models.Wallet{UserID: "bob", Name: "x", Type: models.WalletBank}
	if err := s.Batch(ctx, "alice", Create(Wallets, foreign)); !errors.Is(err, ErrOwnerMismatch) {
		t.Errorf("create for other owner: err = %v, want ErrOwnerMismatch", err)
	}
}

func TestBatch_RollsBackOnFailure(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	w := addWallet(t, s, "alice", 1000)

	tx := &models.Transaction{
		UserID:     "alice",
		AmountCent: 200,
		Type:       models.Expense,
		Category:   "Food",
		Date:       time.Now(),
		WalletID:   w.ID,
	}
	err := s.Batch(ctx, "alice",
		Create(Transactions, tx),
		Increment(Wallets, w.ID, "balance_cent", -200),
		Increment(Goals, "missing-goal", "saved_cent", 50),
	)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	var got models.Wallet
	if err := s.Get(ctx, Wallets, "alice", w.ID, &got); err != nil {
		t.Fatal(err)
	}
	if got.BalanceCent != 1000 {
		t.Errorf("balance = %d after failed batch, want 1000", got.BalanceCent)
	}
	var txs []models.Transaction
	if err := s.List(ctx, Transactions, "alice", ByDate, &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("%d transactions persisted after failed batch", len(txs))
	}
}

func TestRequireNone(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	w := addWallet(t, s, "alice", 0)

	if err := s.Batch(ctx, "alice",
		RequireNone(Transactions, "wallet_id", w.ID),
		Delete(Wallets, w.ID),
	); err != nil {
		t.Fatalf("unreferenced delete: %v", err)
	}

	w = addWallet(t, s, "alice", 0)
	tx := &models.Transaction{UserID: "alice", AmountCent: 1, Type: models.Income, Category: "Other", Date: time.Now(), WalletID: w.ID}
	if _, err := s.Add(ctx, Transactions, tx); err != nil {
		t.Fatal(err)
	}
	err := s.Batch(ctx, "alice",
		RequireNone(Transactions, "wallet_id", w.ID),
		Delete(Wallets, w.ID),
	)
	if !errors.Is(err, ErrReferenced) {
		t.Fatalf("err = %v, want ErrReferenced", err)
	}
	var got models.Wallet
	if err := s.Get(ctx, Wallets, "alice", w.ID, &got); err != nil {
		t.Errorf("wallet was deleted: %v", err)
	}
}

func TestIncrement_RejectsUnknownField(t *testing.T) {
	s := setupTestStore(t)
	w := addWallet(t, s, "alice", 0)

	err := s.Increment(context.Background(), Wallets, "alice", w.ID, "name", 1)
	if !errors.Is(err, ErrBadField) {
		t.Errorf("err = %v, want ErrBadField", err)
	}
}

func TestIncrement_Concurrent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	w := addWallet(t, s, "alice", 0)

	const workers, perWorker = 2, 5
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				errs <- s.Increment(ctx, Wallets, "alice", w.ID, "balance_cent", 100)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	var got models.Wallet
	if err := s.Get(ctx, Wallets, "alice", w.ID, &got); err != nil {
		t.Fatal(err)
	}
	if got.BalanceCent != workers*perWorker*100 {
		t.Errorf("balance = %d, want %d", got.BalanceCent, workers*perWorker*100)
	}
}

func TestList_Order(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	w := addWallet(t, s, "alice", 0)

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, d := range []int{3, 1, 2} {
		tx := &models.Transaction{UserID: "alice", AmountCent: int64(d), Type: models.Income,
			Category: "Other", Date: base.AddDate(0, 0, d), WalletID: w.ID}
		if _, err := s.Add(ctx, Transactions, tx); err != nil {
			t.Fatal(err)
		}
	}

	var txs []models.Transaction
	if err := s.List(ctx, Transactions, "alice", ByDate, &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("len = %d", len(txs))
	}
	for i, want := range []int64{3, 2, 1} {
		if txs[i].AmountCent != want {
			t.Errorf("txs[%d] = %d, want %d", i, txs[i].AmountCent, want)
		}
	}
}

func TestPurge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	addWallet(t, s, "alice", 0)
	addWallet(t, s, "alice", 0)
	addWallet(t, s, "bob", 0)

	if err := s.Batch(ctx, "alice", Purge(Wallets)); err != nil {
		t.Fatal(err)
	}
	var list []models.Wallet
	s.List(ctx, Wallets, "alice", ByCreated, &list)
	if len(list) != 0 {
		t.Errorf("alice still has %d wallets", len(list))
	}
	s.List(ctx, Wallets, "bob", ByCreated, &list)
	if len(list) != 1 {
		t.Errorf("bob has %d wallets, want 1", len(list))
	}
}

type recordingRelay struct {
	mu    sync.Mutex
	calls []Collection
}

func (r *recordingRelay) Publish(_ context.Context, coll Collection, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, coll)
	return nil
}

func TestBatch_NotifiesTouchedCollections(t *testing.T) {
	s := setupTestStore(t)
	relay := &recordingRelay{}
	s.SetRelay(relay)
	w := addWallet(t, s, "alice", 0)
	relay.calls = nil

	tx := &models.Transaction{UserID: "alice", AmountCent: 10, Type: models.Income, Category: "Other", Date: time.Now(), WalletID: w.ID}
	if err := s.Batch(context.Background(), "alice",
		Create(Transactions, tx),
		Increment(Wallets, w.ID, "balance_cent", 10),
		Increment(Wallets, w.ID, "balance_cent", 0),
	); err != nil {
		t.Fatal(err)
	}
	if len(relay.calls) != 2 || relay.calls[0] != Transactions || relay.calls[1] != Wallets {
		t.Errorf("relay calls = %v, want [transactions wallets]", relay.calls)
	}
}
