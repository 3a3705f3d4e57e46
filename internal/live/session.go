// Package live keeps one user's dashboard current. A Session watches every
// ledger collection plus the profile and sessions of its user, and emits a
// freshly computed View after each change.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muhfadtz/TrackFinance/internal/aggregate"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
)

// EventKind tells a View update from the end of the session.
type EventKind string

const (
	EventView      EventKind = "view"
	EventSignedOut EventKind = "signed_out"
)

// View is the state a client renders.
type View struct {
	Profile models.Profile    `json:"profile"`
	Ledger  models.Ledger     `json:"ledger"`
	Summary aggregate.Summary `json:"summary"`
	At      time.Time         `json:"at"`
}

// Event is one item of a session's output.
type Event struct {
	Kind EventKind
	View *View
}

// Options tune a Session.
type Options struct {
	WindowDays int
	Location   *time.Location
	// Profile is used until the user has a stored profile.
	Profile models.Profile
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is the live view of one signed-in user.
type Session struct {
	store     *store.Store
	userID    string
	sessionID string
	opts      Options
	log       *slog.Logger
}

func NewSession(s *store.Store, userID, sessionID string, opts Options, log *slog.Logger) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Session{
		store:     s,
		userID:    userID,
		sessionID: sessionID,
		opts:      opts,
		log:       logger.Component(log, "live").With(logger.FieldUserID, userID),
	}
}

type feeds struct {
	wallets      <-chan []models.Wallet
	transactions <-chan []models.Transaction
	goals        <-chan []models.Goal
	debts        <-chan []models.Debt
	profiles     <-chan []models.Profile
	sessions     <-chan []models.Session
}

// Run subscribes and returns the event stream. The first View is ready once
// Run returns. The channel closes when ctx is done, or right after an
// EventSignedOut.
func (s *Session) Run(ctx context.Context) (<-chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)

	f, err := s.subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	var (
		l       models.Ledger
		profile []models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		l.Wallets, err = first(gctx, f.wallets)
		return err
	})
	g.Go(func() (err error) {
		l.Transactions, err = first(gctx, f.transactions)
		return err
	})
	g.Go(func() (err error) {
		l.Goals, err = first(gctx, f.goals)
		return err
	})
	g.Go(func() (err error) {
		l.Debts, err = first(gctx, f.debts)
		return err
	})
	g.Go(func() (err error) {
		profile, err = first(gctx, f.profiles)
		return err
	})
	if err := g.Wait(); err != nil {
		cancel()
		return nil, fmt.Errorf("initial load: %w", err)
	}

	out := make(chan Event, 1)
	go func() {
		defer close(out)
		defer cancel()

		p := s.pickProfile(profile)
		if !s.send(ctx, out, Event{Kind: EventView, View: s.view(p, l)}) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-f.wallets:
				if !ok {
					return
				}
				l.Wallets = v
			case v, ok := <-f.transactions:
				if !ok {
					return
				}
				l.Transactions = v
			case v, ok := <-f.goals:
				if !ok {
					return
				}
				l.Goals = v
			case v, ok := <-f.debts:
				if !ok {
					return
				}
				l.Debts = v
			case v, ok := <-f.profiles:
				if !ok {
					return
				}
				p = s.pickProfile(v)
			case v, ok := <-f.sessions:
				if !ok {
					return
				}
				if !s.signedIn(v) {
					s.log.Debug("session ended", "session_id", s.sessionID)
					s.send(ctx, out, Event{Kind: EventSignedOut})
					return
				}
				continue
			}
			if !s.send(ctx, out, Event{Kind: EventView, View: s.view(p, l)}) {
				return
			}
		}
	}()
	return out, nil
}

func (s *Session) subscribe(ctx context.Context) (*feeds, error) {
	var (
		f   feeds
		err error
	)
	if f.wallets, err = store.Watch[models.Wallet](ctx, s.store, store.Wallets, s.userID, store.ByCreated); err != nil {
		return nil, err
	}
	if f.transactions, err = store.Watch[models.Transaction](ctx, s.store, store.Transactions, s.userID, store.ByDate); err != nil {
		return nil, err
	}
	if f.goals, err = store.Watch[models.Goal](ctx, s.store, store.Goals, s.userID, store.ByCreated); err != nil {
		return nil, err
	}
	if f.debts, err = store.Watch[models.Debt](ctx, s.store, store.Debts, s.userID, store.ByCreated); err != nil {
		return nil, err
	}
	if f.profiles, err = store.Watch[models.Profile](ctx, s.store, store.Profiles, s.userID, store.Unordered); err != nil {
		return nil, err
	}
	if f.sessions, err = store.Watch[models.Session](ctx, s.store, store.Sessions, s.userID, store.ByCreated); err != nil {
		return nil, err
	}
	return &f, nil
}

func first[T any](ctx context.Context, ch <-chan []T) ([]T, error) {
	select {
	case v, ok := <-ch:
		if !ok {
			return nil, errors.New("subscription closed")
		}
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) pickProfile(ps []models.Profile) models.Profile {
	if len(ps) > 0 {
		return ps[0]
	}
	p := s.opts.Profile
	p.UserID = s.userID
	return p
}

// signedIn reports whether this session is still among the user's active
// sessions.
func (s *Session) signedIn(sessions []models.Session) bool {
	now := s.opts.Now()
	for i := range sessions {
		if sessions[i].ID == s.sessionID {
			return sessions[i].Active(now)
		}
	}
	return false
}

func (s *Session) view(p models.Profile, l models.Ledger) *View {
	now := s.opts.Now().In(s.opts.Location)
	return &View{
		Profile: p,
		Ledger:  l,
		Summary: aggregate.Summarize(&l, now, s.opts.WindowDays),
		At:      now,
	}
}
