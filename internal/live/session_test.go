package live

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/config"
	"github.com/muhfadtz/TrackFinance/internal/database"
	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "live.db"),
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
	return store.New(db, nil)
}

func createSession(t *testing.T, s *store.Store) (userID, sessionID string) {
	t.Helper()
	user := &models.User{Email: "live@example.com"}
	if err := s.DB().Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess := &models.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if _, err := s.Add(context.Background(), store.Sessions, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return user.ID, sess.ID
}

// waitFor reads events until match returns true.
func waitFor(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event stream closed")
			}
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestSession_RecomputesOnChange(t *testing.T) {
	s := setupTestStore(t)
	userID, sessionID := createSession(t, s)
	m := ledger.NewMutator(s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := NewSession(s, userID, sessionID, Options{
		WindowDays: 30,
		Profile:    models.Profile{Theme: models.ThemeDark, Currency: "USD"},
	}, nil)
	events, err := sess.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	ev := waitFor(t, events, func(Event) bool { return true })
	if ev.Kind != EventView || ev.View.Summary.TotalBalanceCent != 0 {
		t.Fatalf("first event = %+v", ev)
	}
	if ev.View.Profile.Theme != models.ThemeDark || ev.View.Profile.Currency != "USD" {
		t.Errorf("default profile = %+v", ev.View.Profile)
	}

	w, err := m.CreateWallet(ctx, userID, ledger.WalletInput{Name: "Cash", Type: models.WalletCash, BalanceCent: 1_000})
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, func(ev Event) bool {
		return ev.Kind == EventView && ev.View.Summary.TotalBalanceCent == 1_000
	})

	if _, err := m.RecordTransaction(ctx, userID, ledger.TransactionInput{
		AmountCent: 250, Type: models.Expense, Category: "Food", WalletID: w.ID, Date: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	ev = waitFor(t, events, func(ev Event) bool {
		return ev.Kind == EventView &&
			ev.View.Summary.TransactionCount == 1 &&
			ev.View.Summary.TotalBalanceCent == 750
	})
	if ev.View.Summary.MonthlyExpenseCent != 250 {
		t.Errorf("monthly expense = %d, want 250", ev.View.Summary.MonthlyExpenseCent)
	}

	if err := s.Batch(ctx, userID, store.Create(store.Profiles, &models.Profile{
		UserID: userID, Theme: models.ThemeLight, Currency: "EUR",
	})); err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, func(ev Event) bool {
		return ev.Kind == EventView && ev.View.Profile.Currency == "EUR"
	})
}

func TestSession_SignedOutOnRevoke(t *testing.T) {
	s := setupTestStore(t)
	userID, sessionID := createSession(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := NewSession(s, userID, sessionID, Options{}, nil).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventView })

	if err := s.Update(ctx, store.Sessions, userID, sessionID, map[string]interface{}{"revoked": true}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSignedOut })

	select {
	case _, ok := <-events:
		if ok {
			t.Error("stream still open after signed_out")
		}
	case <-time.After(5 * time.Second):
		t.Error("stream not closed after signed_out")
	}
}

func TestSession_CancelCloses(t *testing.T) {
	s := setupTestStore(t)
	userID, sessionID := createSession(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := NewSession(s, userID, sessionID, Options{}, nil).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream not closed after cancel")
		}
	}
}
