package store

import (
	"context"
	"fmt"

	"github.com/muhfadtz/TrackFinance/internal/logger"

	"gorm.io/gorm"
)

// OpKind is the kind of a batched write.
type OpKind int

const (
	OpCreate OpKind = iota + 1
	OpUpdate
	OpIncrement
	OpDelete
	OpRequireNone
	OpPurge
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpIncrement:
		return "increment"
	case OpDelete:
		return "delete"
	case OpRequireNone:
		return "require-none"
	case OpPurge:
		return "purge"
	}
	return "unknown"
}

// Op is one step of a Batch. Build it with the constructors below.
type Op struct {
	Kind   OpKind
	Coll   Collection
	ID     string
	Record Entity
	Fields map[string]interface{}
	Field  string
	Delta  int64
	Value  interface{}
}

// Create inserts rec.
func Create(coll Collection, rec Entity) Op {
	return Op{Kind: OpCreate, Coll: coll, Record: rec}
}

// Update replaces columns of record id.
func Update(coll Collection, id string, fields map[string]interface{}) Op {
	return Op{Kind: OpUpdate, Coll: coll, ID: id, Fields: fields}
}

// Increment adds delta to field of record id.
func Increment(coll Collection, id, field string, delta int64) Op {
	return Op{Kind: OpIncrement, Coll: coll, ID: id, Field: field, Delta: delta}
}

// Delete removes record id.
func Delete(coll Collection, id string) Op {
	return Op{Kind: OpDelete, Coll: coll, ID: id}
}

// RequireNone fails the batch with ErrReferenced when any owner record in
// coll has field = value.
func RequireNone(coll Collection, field string, value interface{}) Op {
	return Op{Kind: OpRequireNone, Coll: coll, Field: field, Value: value}
}

// Purge removes every owner record of coll.
func Purge(coll Collection) Op {
	return Op{Kind: OpPurge, Coll: coll}
}

// Batch applies ops in order inside one transaction. Either every op lands
// or none does. Ops addressing a single id must hit exactly one record of
// owner, else the batch fails with ErrNotFound.
func (s *Store) Batch(ctx context.Context, owner string, ops ...Op) error {
	if owner == "" {
		return ErrNoOwner
	}
	if len(ops) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, op := range ops {
			if err := apply(tx, owner, op); err != nil {
				return fmt.Errorf("batch op %d (%s %s): %w", i, op.Kind, op.Coll, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	seen := make(map[Collection]bool, len(ops))
	for _, op := range ops {
		if op.Kind == OpRequireNone || seen[op.Coll] {
			continue
		}
		seen[op.Coll] = true
		s.changed(ctx, op.Coll, owner)
	}
	return nil
}

func apply(tx *gorm.DB, owner string, op Op) error {
	m, err := model(op.Coll)
	if err != nil {
		return err
	}
	byID := "user_id = ? AND " + idColumn(op.Coll) + " = ?"

	var res *gorm.DB
	switch op.Kind {
	case OpCreate:
		if op.Record == nil {
			return fmt.Errorf("create without record: %w", ErrBadField)
		}
		if op.Record.OwnerID() != owner {
			return ErrOwnerMismatch
		}
		return tx.Create(op.Record).Error

	case OpUpdate:
		for f := range op.Fields {
			if !columnRe.MatchString(f) || f == "id" || f == "user_id" {
				return fmt.Errorf("%q: %w", f, ErrBadField)
			}
		}
		res = tx.Model(m).Where(byID, owner, op.ID).Updates(op.Fields)

	case OpIncrement:
		if !increments[op.Coll][op.Field] {
			return fmt.Errorf("%q: %w", op.Field, ErrBadField)
		}
		res = tx.Model(m).Where(byID, owner, op.ID).
			UpdateColumn(op.Field, gorm.Expr(op.Field+" + ?", op.Delta))

	case OpDelete:
		res = tx.Where(byID, owner, op.ID).Delete(m)

	case OpRequireNone:
		if !columnRe.MatchString(op.Field) {
			return fmt.Errorf("%q: %w", op.Field, ErrBadField)
		}
		var n int64
		if err := tx.Model(m).Where("user_id = ? AND "+op.Field+" = ?", owner, op.Value).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%d %s with %s = %v: %w", n, op.Coll, op.Field, op.Value, ErrReferenced)
		}
		return nil

	case OpPurge:
		return tx.Where("user_id = ?", owner).Delete(m).Error

	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%s %s: %w", op.Coll, op.ID, ErrNotFound)
	}
	return nil
}

// changed announces a committed change locally and to the relay.
func (s *Store) changed(ctx context.Context, coll Collection, owner string) {
	s.hub.Notify(coll, owner)
	if s.relay == nil {
		return
	}
	if err := s.relay.Publish(ctx, coll, owner); err != nil {
		s.log.Warn("relay publish failed",
			"collection", coll,
			logger.FieldUserID, owner,
			logger.FieldError, err)
	}
}
