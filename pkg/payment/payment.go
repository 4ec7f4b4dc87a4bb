// Package payment holds the outbound gateway clients. Handlers own the
// database side of a purchase; this package only talks HTTP to PayPal and
// Stripe.
package payment

import "errors"

// ErrNotConfigured is returned when a gateway is missing its credentials.
var ErrNotConfigured = errors.New("gateway is not configured")

// CheckoutRequest describes a purchase being initiated against a gateway.
type CheckoutRequest struct {
	PaymentID    uint
	UserID       uint
	Amount       float64
	Currency     string
	DurationDays int
	PaymentType  string // new | extension
	PlanLabel    string
	Email        string
	FirstName    string
	LastName     string
	ReturnURL    string
	CancelURL    string
	NotifyURL    string
}
