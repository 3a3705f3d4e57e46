package relay

import (
	"context"
	"log/slog"
	"testing"

	"github.com/muhfadtz/TrackFinance/internal/store"
)

type recorder struct {
	got []string
}

func (r *recorder) Notify(coll store.Collection, owner string) {
	r.got = append(r.got, string(coll)+"/"+owner)
}

func TestChangeMessage_JSON(t *testing.T) {
	msg := NewChangeMessage("inst-1", store.Wallets, "user-1")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ChangeMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if back.Instance != "inst-1" || back.Collection != store.Wallets || back.Owner != "user-1" {
		t.Errorf("decoded %+v", back)
	}
}

func TestDispatch(t *testing.T) {
	c := &Client{instance: "self", log: slog.Default()}
	ctx := context.Background()

	encode := func(m *ChangeMessage) []byte {
		b, err := m.ToJSON()
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	tests := []struct {
		name string
		body []byte
		want bool
	}{
		{"remote change", encode(NewChangeMessage("other", store.Transactions, "u1")), true},
		{"own change", encode(NewChangeMessage("self", store.Transactions, "u1")), false},
		{"no owner", encode(NewChangeMessage("other", store.Goals, "")), false},
		{"garbage", []byte("{not json"), false},
	}

	r := &recorder{}
	for _, tt := range tests {
		if got := c.dispatch(ctx, tt.body, r); got != tt.want {
			t.Errorf("%s: dispatch = %v, want %v", tt.name, got, tt.want)
		}
	}
	if len(r.got) != 1 || r.got[0] != "transactions/u1" {
		t.Errorf("notified %v", r.got)
	}
}

func TestHubIsNotifier(t *testing.T) {
	var _ Notifier = store.NewHub()
	var _ store.Relay = (*Client)(nil)
}
