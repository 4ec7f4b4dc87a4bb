package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestCents(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{24.95, 2495}, // the classic float trap: 24.95*100 = 2494.9999...
		{5.00, 500},
		{10.00, 1000},
		{20.00, 2000},
		{0, 0},
		{0.01, 1},
		{19.99, 1999},
	}
	for _, tt := range tests {
		if got := Cents(tt.in); got != tt.want {
			t.Errorf("Cents(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildStripeQuery(t *testing.T) {
	data := map[string]interface{}{
		"mode": "payment",
		"line_items": []interface{}{
			map[string]interface{}{
				"quantity": "1",
				"price_data": map[string]interface{}{
					"currency":    "usd",
					"unit_amount": "2495",
				},
			},
		},
		"metadata": map[string]interface{}{
			"user_id": "4",
		},
	}
	got := buildStripeQuery(data, "")
	values, err := url.ParseQuery(got)
	if err != nil {
		t.Fatalf("output does not parse as a query string: %v", err)
	}
	want := map[string]string{
		"mode":                                    "payment",
		"line_items[0][quantity]":                 "1",
		"line_items[0][price_data][currency]":     "usd",
		"line_items[0][price_data][unit_amount]":  "2495",
		"metadata[user_id]":                       "4",
	}
	for k, v := range want {
		if values.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, values.Get(k), v)
		}
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"id": "pi_1", "client_secret": "pi_1_secret"}`)
	}))
	defer srv.Close()

	s := NewStripeProvider("sk_test_abc")
	s.BaseURL = srv.URL
	intent, err := s.CreatePaymentIntent(context.Background(), CheckoutRequest{
		PaymentID:    9,
		UserID:       4,
		Amount:       24.95,
		Currency:     "USD",
		DurationDays: 90,
		PaymentType:  "new",
		Email:        "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Errorf("intent = %+v", intent)
	}
	if gotAuth != "Bearer sk_test_abc" {
		t.Errorf("auth header = %q", gotAuth)
	}
	values, _ := url.ParseQuery(gotBody)
	if values.Get("amount") != "2495" {
		t.Errorf("amount = %q, want 2495", values.Get("amount"))
	}
	if values.Get("currency") != "usd" {
		t.Errorf("currency = %q", values.Get("currency"))
	}
	if values.Get("metadata[payment_id]") != "9" {
		t.Errorf("metadata[payment_id] = %q", values.Get("metadata[payment_id]"))
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		values, _ := url.ParseQuery(string(body))
		if values.Get("line_items[0][price_data][unit_amount]") != "2495" {
			t.Errorf("unit_amount = %q", values.Get("line_items[0][price_data][unit_amount]"))
		}
		if values.Get("client_reference_id") != "9" {
			t.Errorf("client_reference_id = %q", values.Get("client_reference_id"))
		}
		fmt.Fprint(w, `{"id": "cs_1", "url": "https://checkout.stripe.com/pay/cs_1"}`)
	}))
	defer srv.Close()

	s := NewStripeProvider("sk_test_abc")
	s.BaseURL = srv.URL
	sess, err := s.CreateCheckoutSession(context.Background(), CheckoutRequest{
		PaymentID: 9, UserID: 4, Amount: 24.95, Currency: "USD",
		DurationDays: 90, PaymentType: "new", PlanLabel: "90 Days Membership",
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if sess.ID != "cs_1" || !strings.Contains(sess.URL, "cs_1") {
		t.Errorf("session = %+v", sess)
	}
}

func TestStripeErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error": {"message": "Your card was declined."}}`)
	}))
	defer srv.Close()

	s := NewStripeProvider("sk_test_abc")
	s.BaseURL = srv.URL
	_, err := s.CreatePaymentIntent(context.Background(), CheckoutRequest{Amount: 5, Currency: "USD"})
	if err == nil || !strings.Contains(err.Error(), "card was declined") {
		t.Errorf("err = %v, want card-declined message", err)
	}
}

func TestNotConfigured(t *testing.T) {
	s := NewStripeProvider("")
	if _, err := s.CreatePaymentIntent(context.Background(), CheckoutRequest{}); err != ErrNotConfigured {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := s.CreateCheckoutSession(context.Background(), CheckoutRequest{}); err != ErrNotConfigured {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(`{"type": "payment_intent.succeeded"}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", "t=" + ts + ",v1=" + sig, true},
		{"valid_with_spaces", "t=" + ts + ", v1=" + sig, true},
		{"wrong_sig", "t=" + ts + ",v1=deadbeef", false},
		{"wrong_timestamp", "t=0,v1=" + sig, false},
		{"missing_v1", "t=" + ts, false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyWebhookSignature(payload, tt.header, secret); got != tt.want {
				t.Errorf("VerifyWebhookSignature = %v, want %v", got, tt.want)
			}
		})
	}
}
