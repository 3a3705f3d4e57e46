package models

import "time"

// DebtType tells who owes whom.
type DebtType string

const (
	IOwe     DebtType = "i_owe"
	OwedToMe DebtType = "owed_to_me"
)

// Valid reports whether t is a known debt direction.
func (t DebtType) Valid() bool {
	return t == IOwe || t == OwedToMe
}

// Debt tracks an obligation. IsPaid is a status flag only and never moves
// money between wallets.
type Debt struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;index;not null" json:"user_id"`
	PersonName  string     `gorm:"size:64;not null" json:"person_name"`
	AmountCent  int64      `gorm:"not null" json:"amount_cent"`
	Type        DebtType   `gorm:"size:16;not null" json:"type"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Description string     `gorm:"size:255" json:"description,omitempty"`
	IsPaid      bool       `gorm:"not null;default:false" json:"is_paid"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
