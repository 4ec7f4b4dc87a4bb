package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const stripeAPIURL = "https://api.stripe.com"

// StripeProvider calls the Stripe REST API directly: form-encoded bodies
// with bracket-nested keys, authenticated with the bearer secret key.
type StripeProvider struct {
	SecretKey string
	// BaseURL is the API root; overridable in tests.
	BaseURL string
	client  *http.Client
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{
		SecretKey: secretKey,
		BaseURL:   stripeAPIURL,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *StripeProvider) Configured() bool {
	return s.SecretKey != ""
}

// Cents converts a dollar amount to integer cents without floating-point
// drift (24.95 must become 2495, never 2494).
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CheckoutSession is the subset of the session object the caller needs.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentIntent is the subset of the intent object the caller needs.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession creates a hosted checkout session. Metadata carries
// user_id/duration_days/payment_type/payment_id so the webhook can settle
// the purchase; client_reference_id doubles as the payment row id.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	data := map[string]interface{}{
		"payment_method_types": []interface{}{"card"},
		"line_items": []interface{}{
			map[string]interface{}{
				"price_data": map[string]interface{}{
					"currency": strings.ToLower(req.Currency),
					"product_data": map[string]interface{}{
						"name": req.PlanLabel,
					},
					"unit_amount": fmt.Sprintf("%d", Cents(req.Amount)),
				},
				"quantity": "1",
			},
		},
		"mode":                "payment",
		"success_url":         req.ReturnURL,
		"cancel_url":          req.CancelURL,
		"client_reference_id": fmt.Sprintf("%d", req.PaymentID),
		"customer_email":      req.Email,
		"metadata": map[string]interface{}{
			"user_id":       fmt.Sprintf("%d", req.UserID),
			"duration_days": fmt.Sprintf("%d", req.DurationDays),
			"payment_type":  req.PaymentType,
			"payment_id":    fmt.Sprintf("%d", req.PaymentID),
		},
	}
	var out CheckoutSession
	if err := s.post(ctx, "/v1/checkout/sessions", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentIntent creates an intent for the inline elements flow and
// returns its client secret for browser-side confirmation.
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, req CheckoutRequest) (*PaymentIntent, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	data := map[string]interface{}{
		"amount":   fmt.Sprintf("%d", Cents(req.Amount)),
		"currency": strings.ToLower(req.Currency),
		"automatic_payment_methods": map[string]interface{}{
			"enabled": "true",
		},
		"metadata": map[string]interface{}{
			"user_id":       fmt.Sprintf("%d", req.UserID),
			"duration_days": fmt.Sprintf("%d", req.DurationDays),
			"payment_type":  req.PaymentType,
			"payment_id":    fmt.Sprintf("%d", req.PaymentID),
		},
	}
	if req.Email != "" {
		data["receipt_email"] = req.Email
	}
	var out PaymentIntent
	if err := s.post(ctx, "/v1/payment_intents", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StripeProvider) post(ctx context.Context, path string, data map[string]interface{}, out interface{}) error {
	body := buildStripeQuery(data, "")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var se stripeError
		if json.Unmarshal(respBody, &se) == nil && se.Error.Message != "" {
			return fmt.Errorf("stripe: %d %s", resp.StatusCode, se.Error.Message)
		}
		return fmt.Errorf("stripe: %d %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

// buildStripeQuery flattens nested maps and slices into Stripe's
// bracket-nested form encoding, e.g.
// line_items[0][price_data][currency]=usd. Keys are sorted for stable
// output.
func buildStripeQuery(data map[string]interface{}, prefix string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "[" + k + "]"
		}
		parts = append(parts, encodeValue(key, data[k])...)
	}
	return strings.Join(parts, "&")
}

func encodeValue(key string, v interface{}) []string {
	switch val := v.(type) {
	case map[string]interface{}:
		return []string{buildStripeQuery(val, key)}
	case []interface{}:
		var parts []string
		for i, item := range val {
			parts = append(parts, encodeValue(fmt.Sprintf("%s[%d]", key, i), item)...)
		}
		return parts
	default:
		return []string{url.QueryEscape(key) + "=" + url.QueryEscape(fmt.Sprintf("%v", val))}
	}
}

// VerifyWebhookSignature checks a Stripe-Signature header
// (t=<ts>,v1=<hmac>) against the raw payload. HMAC-SHA256 over
// "<ts>.<payload>" keyed with the webhook secret.
func VerifyWebhookSignature(payload []byte, header, secret string) bool {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sig = kv[1]
		}
	}
	if ts == "" || sig == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
