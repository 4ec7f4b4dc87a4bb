package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	paypalLiveURL    = "https://www.paypal.com/cgi-bin/webscr"
	paypalSandboxURL = "https://www.sandbox.paypal.com/cgi-bin/webscr"
)

// PayPalProvider builds classic _xclick redirect forms and verifies IPN
// callbacks against PayPal.
type PayPalProvider struct {
	BusinessEmail string
	// Endpoint is the webscr URL; overridable in tests.
	Endpoint string
	client   *http.Client
}

func NewPayPalProvider(businessEmail string, sandbox bool) *PayPalProvider {
	endpoint := paypalLiveURL
	if sandbox {
		endpoint = paypalSandboxURL
	}
	return &PayPalProvider{
		BusinessEmail: businessEmail,
		Endpoint:      endpoint,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PayPalProvider) Configured() bool {
	return p.BusinessEmail != ""
}

// CheckoutForm returns the redirect URL and the hidden form fields for a
// hosted PayPal checkout. The custom field carries user|days|type so the IPN
// callback can reconstruct the purchase.
func (p *PayPalProvider) CheckoutForm(req CheckoutRequest) (string, map[string]string) {
	fields := map[string]string{
		"cmd":           "_xclick",
		"business":      p.BusinessEmail,
		"item_name":     req.PlanLabel,
		"item_number":   strconv.FormatUint(uint64(req.PaymentID), 10),
		"amount":        strconv.FormatFloat(req.Amount, 'f', 2, 64),
		"currency_code": req.Currency,
		"custom":        fmt.Sprintf("%d|%d|%s", req.UserID, req.DurationDays, req.PaymentType),
		"return":        req.ReturnURL,
		"cancel_return": req.CancelURL,
		"notify_url":    req.NotifyURL,
		"no_shipping":   "1",
		"no_note":       "1",
		"email":         req.Email,
		"first_name":    req.FirstName,
		"last_name":     req.LastName,
	}
	return p.Endpoint, fields
}

// VerifyIPN re-posts the raw IPN body back to PayPal with
// cmd=_notify-validate prepended. Only the literal response body VERIFIED
// authenticates the notification.
func (p *PayPalProvider) VerifyIPN(ctx context.Context, rawBody string) (bool, error) {
	body := "cmd=_notify-validate&" + rawBody
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, strings.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	return string(respBody) == "VERIFIED", nil
}
