package store

import (
	"context"
	"testing"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/models"
)

func next[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("watch channel closed")
		}
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestWatch_DeliversSnapshots(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addWallet(t, s, "alice", 100)

	ch, err := Watch[models.Wallet](ctx, s, Wallets, "alice", ByCreated)
	if err != nil {
		t.Fatal(err)
	}
	if got := next(t, ch); len(got) != 1 {
		t.Fatalf("initial snapshot has %d wallets, want 1", len(got))
	}

	w := addWallet(t, s, "alice", 50)
	got := next(t, ch)
	if len(got) != 2 {
		t.Fatalf("snapshot after add has %d wallets, want 2", len(got))
	}

	if err := s.Increment(ctx, Wallets, "alice", w.ID, "balance_cent", 25); err != nil {
		t.Fatal(err)
	}
	got = next(t, ch)
	var total int64
	for _, w := range got {
		total += w.BalanceCent
	}
	if total != 175 {
		t.Errorf("total = %d, want 175", total)
	}
}

func TestWatch_IgnoresOtherOwners(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := Watch[models.Wallet](ctx, s, Wallets, "alice", ByCreated)
	if err != nil {
		t.Fatal(err)
	}
	next(t, ch)

	addWallet(t, s, "bob", 1)
	select {
	case v := <-ch:
		t.Errorf("alice received a snapshot for bob's change: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_CancelClosesAndUnsubscribes(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := Watch[models.Debt](ctx, s, Debts, "alice", ByCreated)
	if err != nil {
		t.Fatal(err)
	}
	next(t, ch)
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if n := s.Hub().Listeners(Debts, "alice"); n != 0 {
					t.Errorf("listeners = %d after cancel", n)
				}
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatch_RequiresOwner(t *testing.T) {
	s := setupTestStore(t)
	if _, err := Watch[models.Wallet](context.Background(), s, Wallets, "", ByCreated); err == nil {
		t.Error("expected ErrNoOwner")
	}
}

func TestHub_Coalesces(t *testing.T) {
	h := NewHub()
	ch, stop := h.Listen(Goals, "alice")
	defer stop()

	for i := 0; i < 10; i++ {
		h.Notify(Goals, "alice")
	}
	<-ch
	select {
	case <-ch:
		t.Error("expected notifications to be coalesced")
	default:
	}
}
