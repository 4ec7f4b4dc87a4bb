package models

import "time"

// TrialUsage enforces one free trial per email address for the lifetime of
// the system. The unique index on email is the guarantee.
type TrialUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	UserID    uint      `gorm:"index" json:"user_id"`
	TrialDate time.Time `json:"trial_date"`
}

func (TrialUsage) TableName() string {
	return "trial_usage"
}
