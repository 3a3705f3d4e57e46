// Package store is the owner-scoped entity store behind the ledger. Every
// read and write is filtered by the owning user, multi-record writes are
// applied as one SQL transaction, and each commit is announced on a change
// hub so that live views can reload.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"

	"gorm.io/gorm"
)

// Collection names an owner-scoped record kind.
type Collection string

const (
	Wallets      Collection = "wallets"
	Transactions Collection = "transactions"
	Goals        Collection = "goals"
	Debts        Collection = "debts"
	Profiles     Collection = "profiles"
	Sessions     Collection = "sessions"
)

// Ledger lists the collections that make up a user's ledger.
var Ledger = []Collection{Wallets, Transactions, Goals, Debts}

var (
	ErrNotFound      = errors.New("record not found")
	ErrReferenced    = errors.New("record is still referenced")
	ErrNoOwner       = errors.New("owner id is required")
	ErrOwnerMismatch = errors.New("record belongs to another owner")
	ErrBadField      = errors.New("field cannot be used here")
)

// Entity is a record stored in one of the collections.
type Entity interface {
	EntityID() string
	OwnerID() string
}

// Order is the sort order of a listed collection.
type Order int

const (
	// ByCreated sorts newest first.
	ByCreated Order = iota
	// ByDate sorts by transaction date, newest first.
	ByDate
	// Unordered keeps the primary key order.
	Unordered
)

var columnRe = regexp.MustCompile(`^[a-z][a-z_]*$`)

// increments lists the numeric columns that may be changed by delta.
var increments = map[Collection]map[string]bool{
	Wallets: {"balance_cent": true},
	Goals:   {"saved_cent": true},
}

// Store reads and writes owner-scoped records through gorm.
type Store struct {
	db    *gorm.DB
	hub   *Hub
	relay Relay
	log   *slog.Logger
}

// New wraps db. A nil log uses slog.Default.
func New(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{
		db:  db,
		hub: NewHub(),
		log: logger.Component(log, "store"),
	}
}

// DB exposes the underlying connection for records outside the ledger
// (users, audit logs, backups).
func (s *Store) DB() *gorm.DB { return s.db }

// Hub returns the change hub.
func (s *Store) Hub() *Hub { return s.hub }

// SetRelay forwards every local change to r. Call before serving.
func (s *Store) SetRelay(r Relay) { s.relay = r }

func model(coll Collection) (interface{}, error) {
	switch coll {
	case Wallets:
		return &models.Wallet{}, nil
	case Transactions:
		return &models.Transaction{}, nil
	case Goals:
		return &models.Goal{}, nil
	case Debts:
		return &models.Debt{}, nil
	case Profiles:
		return &models.Profile{}, nil
	case Sessions:
		return &models.Session{}, nil
	}
	return nil, fmt.Errorf("unknown collection %q", coll)
}

func idColumn(coll Collection) string {
	if coll == Profiles {
		return "user_id"
	}
	return "id"
}

func (o Order) clause(coll Collection) string {
	id := idColumn(coll)
	switch o {
	case ByCreated:
		return "created_at DESC, " + id + " DESC"
	case ByDate:
		return "date DESC, " + id + " DESC"
	default:
		return id
	}
}

// Get loads one record into dest. Records of other owners are reported as
// ErrNotFound.
func (s *Store) Get(ctx context.Context, coll Collection, owner, id string, dest interface{}) error {
	if owner == "" {
		return ErrNoOwner
	}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND "+idColumn(coll)+" = ?", owner, id).
		Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", coll, err)
	}
	return nil
}

// List loads the owner's collection into dest, a pointer to a slice.
// Scopes narrow the result; without any the whole collection is returned.
func (s *Store) List(ctx context.Context, coll Collection, owner string, order Order, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) error {
	if owner == "" {
		return ErrNoOwner
	}
	if err := s.db.WithContext(ctx).
		Scopes(scopes...).
		Where("user_id = ?", owner).
		Order(order.clause(coll)).
		Find(dest).Error; err != nil {
		return fmt.Errorf("list %s: %w", coll, err)
	}
	return nil
}

// Add inserts rec and returns its id.
func (s *Store) Add(ctx context.Context, coll Collection, rec Entity) (string, error) {
	if err := s.Batch(ctx, rec.OwnerID(), Create(coll, rec)); err != nil {
		return "", err
	}
	return rec.EntityID(), nil
}

// Update replaces the given columns of one record.
func (s *Store) Update(ctx context.Context, coll Collection, owner, id string, fields map[string]interface{}) error {
	return s.Batch(ctx, owner, Update(coll, id, fields))
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, coll Collection, owner, id string) error {
	return s.Batch(ctx, owner, Delete(coll, id))
}

// Increment adds delta to a numeric column in a single UPDATE, so
// concurrent writers never lose each other's changes.
func (s *Store) Increment(ctx context.Context, coll Collection, owner, id, field string, delta int64) error {
	return s.Batch(ctx, owner, Increment(coll, id, field, delta))
}
