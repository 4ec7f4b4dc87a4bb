package models

import (
	"time"

	"coursepass/internal/domain"
)

// Membership is the current membership row for a user. Renewals update the
// row in place; history lives in the payments table.
type Membership struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Status         string    `gorm:"size:20;not null;index;default:'active'" json:"status"` // active | expired
	EnrollmentType string    `gorm:"size:20;not null;default:'both'" json:"enrollment_type"`
	IsTrial        bool      `gorm:"not null;default:false" json:"is_trial"`
	StartDate      time.Time `gorm:"not null" json:"start_date"`
	EndDate        time.Time `gorm:"not null;index" json:"end_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}

// IsCurrent reports whether the membership grants access at t. Stored status
// can lag reality between sweep runs, so both the flag and the end date are
// checked.
func (m *Membership) IsCurrent(t time.Time) bool {
	return m.Status == domain.MembershipActive && m.EndDate.After(t)
}
