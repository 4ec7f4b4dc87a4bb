package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCheckoutForm(t *testing.T) {
	p := NewPayPalProvider("merchant@example.com", true)
	endpoint, fields := p.CheckoutForm(CheckoutRequest{
		PaymentID:    17,
		UserID:       4,
		Amount:       24.95,
		Currency:     "USD",
		DurationDays: 90,
		PaymentType:  "new",
		PlanLabel:    "90 Days Membership",
		Email:        "buyer@example.com",
		ReturnURL:    "https://example.com/account?payment=success",
		CancelURL:    "https://example.com/account?payment=cancelled",
		NotifyURL:    "https://example.com/api/v1/payments/paypal/ipn",
	})
	if endpoint != paypalSandboxURL {
		t.Errorf("endpoint = %s, want sandbox", endpoint)
	}
	want := map[string]string{
		"cmd":           "_xclick",
		"business":      "merchant@example.com",
		"amount":        "24.95",
		"item_number":   "17",
		"custom":        "4|90|new",
		"currency_code": "USD",
		"no_shipping":   "1",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("fields[%s] = %q, want %q", k, fields[k], v)
		}
	}
}

func TestCheckoutForm_LiveEndpoint(t *testing.T) {
	p := NewPayPalProvider("merchant@example.com", false)
	endpoint, _ := p.CheckoutForm(CheckoutRequest{PaymentID: 1, UserID: 1, Amount: 5, Currency: "USD", DurationDays: 7, PaymentType: "extension"})
	if endpoint != paypalLiveURL {
		t.Errorf("endpoint = %s, want live", endpoint)
	}
}

func TestVerifyIPN(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"verified", "VERIFIED", true},
		{"invalid", "INVALID", false},
		{"garbage", "something else", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				got = string(body)
				w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			p := NewPayPalProvider("merchant@example.com", true)
			p.Endpoint = srv.URL
			raw := "txn_id=TX1&payment_status=Completed&custom=1%7C90%7Cnew"
			ok, err := p.VerifyIPN(context.Background(), raw)
			if err != nil {
				t.Fatalf("VerifyIPN: %v", err)
			}
			if ok != tt.want {
				t.Errorf("VerifyIPN = %v, want %v", ok, tt.want)
			}
			if !strings.HasPrefix(got, "cmd=_notify-validate&") {
				t.Errorf("validation body missing prefix: %s", got)
			}
			if !strings.HasSuffix(got, raw) {
				t.Errorf("raw body not re-posted verbatim: %s", got)
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	if NewPayPalProvider("", true).Configured() {
		t.Error("provider without business email reports configured")
	}
	if !NewPayPalProvider("merchant@example.com", true).Configured() {
		t.Error("configured provider reports unconfigured")
	}
}
