package models

// Ledger is the full set of ledger records of one user, as loaded for the
// dashboard or written to a backup.
type Ledger struct {
	Wallets      []Wallet      `json:"wallets"`
	Transactions []Transaction `json:"transactions"`
	Goals        []Goal        `json:"goals"`
	Debts        []Debt        `json:"debts"`
}
