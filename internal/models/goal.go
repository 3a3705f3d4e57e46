package models

import "time"

// Goal is a savings target. SavedCent only grows, through allocations from
// income transactions, and may exceed TargetCent.
type Goal struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	UserID     string     `gorm:"size:36;index;not null" json:"user_id"`
	Title      string     `gorm:"size:128;not null" json:"title"`
	TargetCent int64      `gorm:"not null" json:"target_cent"`
	SavedCent  int64      `gorm:"not null;default:0" json:"saved_cent"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// Open reports whether the goal can still receive allocations.
func (g *Goal) Open() bool {
	return g.SavedCent < g.TargetCent
}
