package models

import "time"

// WalletType tags a wallet as cash, bank or e-wallet.
type WalletType string

const (
	WalletCash    WalletType = "cash"
	WalletBank    WalletType = "bank"
	WalletEWallet WalletType = "ewallet"
)

// Valid reports whether t is one of the known wallet types.
func (t WalletType) Valid() bool {
	switch t {
	case WalletCash, WalletBank, WalletEWallet:
		return true
	}
	return false
}

// Wallet is a named pool of money. BalanceCent is a running total kept in
// step with the transactions booked against it.
type Wallet struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;index;not null" json:"user_id"`
	Name        string     `gorm:"size:64;not null" json:"name"`
	Type        WalletType `gorm:"size:16;not null" json:"type"`
	BalanceCent int64      `gorm:"not null;default:0" json:"balance_cent"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
