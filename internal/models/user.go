package models

import "time"

// User represents an account that owns a ledger.
type User struct {
	ID            string  `gorm:"primaryKey;size:36"`
	Email         string  `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash  string  `gorm:"size:255"`                 // empty for federated-only accounts
	GoogleSubject *string `gorm:"size:255;uniqueIndex"`     // "sub" claim of a verified Google ID token
	DisplayName   string  `gorm:"size:64"`
	PhotoURL      string  `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`
}

// Theme values accepted in a Profile.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Profile holds per-user display settings. One row per user, created with
// defaults on first sign-in.
type Profile struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"-"`
	Theme     string    `gorm:"size:8;not null" json:"theme"`
	Currency  string    `gorm:"size:8;not null" json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}
