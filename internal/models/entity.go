package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID fills an empty primary key before insert.
func newID(id *string) error {
	if *id == "" {
		*id = uuid.NewString()
	}
	return nil
}

func (w *Wallet) BeforeCreate(*gorm.DB) error { return newID(&w.ID) }
func (t *Transaction) BeforeCreate(*gorm.DB) error { return newID(&t.ID) }
func (g *Goal) BeforeCreate(*gorm.DB) error { return newID(&g.ID) }
func (d *Debt) BeforeCreate(*gorm.DB) error { return newID(&d.ID) }
func (s *Session) BeforeCreate(*gorm.DB) error { return newID(&s.ID) }
func (u *User) BeforeCreate(*gorm.DB) error { return newID(&u.ID) }
func (b *Backup) BeforeCreate(*gorm.DB) error { return newID(&b.ID) }

// EntityID and OwnerID let the store handle owner-scoped records generically.

func (w *Wallet) EntityID() string { return w.ID }
func (t *Transaction) EntityID() string { return t.ID }
func (g *Goal) EntityID() string { return g.ID }
func (d *Debt) EntityID() string { return d.ID }
func (p *Profile) EntityID() string { return p.UserID }
func (s *Session) EntityID() string { return s.ID }

func (w *Wallet) OwnerID() string { return w.UserID }
func (t *Transaction) OwnerID() string { return t.UserID }
func (g *Goal) OwnerID() string { return g.UserID }
func (d *Debt) OwnerID() string { return d.UserID }
func (p *Profile) OwnerID() string { return p.UserID }
func (s *Session) OwnerID() string { return s.UserID }
