package models

import (
	"time"
)

type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	MembershipID  *uint     `gorm:"index" json:"membership_id"` // nil until the membership write lands
	Amount        float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string    `gorm:"size:3;default:'USD'" json:"currency"`
	PaymentMethod string    `gorm:"size:20;not null" json:"payment_method"` // paypal | stripe
	TransactionID *string   `gorm:"uniqueIndex;size:255" json:"transaction_id"`
	PaymentStatus string    `gorm:"size:20;not null;index;default:'pending'" json:"payment_status"` // pending | completed | failed
	PaymentType   string    `gorm:"size:20;not null;default:'new'" json:"payment_type"`             // new | extension
	DurationDays  int       `gorm:"not null" json:"duration_days"`
	PaymentDate   time.Time `json:"payment_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
