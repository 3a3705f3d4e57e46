package models

import "time"

// TransactionType is income or expense.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is an immutable record of money moving into or out of a
// wallet. Amounts are stored in cents to avoid float rounding.
//
// GoalID and AllocatedCent describe the part of an income routed into a
// savings goal; GoalID is empty when nothing was allocated.
type Transaction struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	UserID        string          `gorm:"size:36;index;not null" json:"user_id"`
	AmountCent    int64           `gorm:"not null" json:"amount_cent"`
	Type          TransactionType `gorm:"size:16;index;not null" json:"type"`
	Category      string          `gorm:"size:32;not null" json:"category"`
	Date          time.Time       `gorm:"index;not null" json:"date"`
	Note          string          `gorm:"size:255" json:"note,omitempty"`
	WalletID      string          `gorm:"size:36;index;not null" json:"wallet_id"`
	GoalID        string          `gorm:"size:36;index" json:"goal_id,omitempty"`
	AllocatedCent int64           `gorm:"not null;default:0" json:"allocated_cent,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Allocated reports whether part of the transaction went into a goal.
func (t *Transaction) Allocated() bool {
	return t.GoalID != "" && t.AllocatedCent > 0
}
