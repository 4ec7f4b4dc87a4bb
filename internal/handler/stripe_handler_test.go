package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coursepass/config"
	"coursepass/internal/domain"
	"coursepass/internal/models"
	"coursepass/pkg/payment"

	"github.com/gin-gonic/gin"
)

func newStripeTestHandler(webhookSecret string) (*StripeHandler, *fakePaymentStore, *fakeEnroller, *gin.Engine) {
	payments := newFakePaymentStore()
	enroller := &fakeEnroller{}
	users := &fakeUserGetter{users: map[uint]*models.User{1: {ID: 1, Email: "buyer@example.com"}}}
	cfg := &config.Config{}
	cfg.Stripe.Enabled = true
	cfg.Stripe.SecretKey = "sk_test_123"
	cfg.Stripe.WebhookSecret = webhookSecret

	h := NewStripeHandler(cfg, payment.NewStripeProvider(cfg.Stripe.SecretKey), payments, enroller, users, nil)
	r := gin.New()
	r.POST("/webhook", h.HandleWebhook)
	r.POST("/confirm", func(c *gin.Context) {
		c.Set("user_id", uint(1)) // stand-in for the auth middleware
		h.ConfirmPayment(c)
	})
	return h, payments, enroller, r
}

func intentSucceededEvent(paymentID uint, intentID string) string {
	return fmt.Sprintf(`{
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": %q, "status": "succeeded", "metadata": {"payment_id": "%d"}}}
	}`, intentID, paymentID)
}

func postWebhook(r *gin.Engine, body, sigHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func postConfirm(r *gin.Engine, paymentID uint, txnID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	body := fmt.Sprintf(`{"payment_id": %d, "transaction_id": %q}`, paymentID, txnID)
	req := httptest.NewRequest(http.MethodPost, "/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func signWebhook(payload, secret string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + payload))
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestStripeWebhook_SettlesPayment(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 90})

	w := postWebhook(r, intentSucceededEvent(1, "pi_123"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if payments.rows[1].PaymentStatus != domain.PaymentCompleted {
		t.Error("payment not completed")
	}
	if len(enroller.calls) != 1 {
		t.Fatalf("enroll calls = %d, want 1", len(enroller.calls))
	}
	if c := enroller.calls[0]; c.userID != 1 || c.duration != 90 || c.paymentID != 1 {
		t.Errorf("unexpected enroll call: %+v", c)
	}
}

func TestStripeWebhookThenConfirm_AppliesOnce(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 90})

	if w := postWebhook(r, intentSucceededEvent(1, "pi_222"), ""); w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d", w.Code)
	}
	if w := postConfirm(r, 1, "pi_222"); w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d", w.Code)
	}
	if len(enroller.calls) != 1 {
		t.Errorf("enroll calls = %d, want exactly 1 across both paths", len(enroller.calls))
	}
}

func TestStripeConfirmThenWebhook_AppliesOnce(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 30})

	if w := postConfirm(r, 1, "pi_333"); w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d", w.Code)
	}
	if w := postWebhook(r, intentSucceededEvent(1, "pi_333"), ""); w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d", w.Code)
	}
	if len(enroller.calls) != 1 {
		t.Errorf("enroll calls = %d, want exactly 1 across both paths", len(enroller.calls))
	}
	if payments.rows[1].PaymentStatus != domain.PaymentCompleted {
		t.Error("payment not completed")
	}
}

func TestStripeWebhook_ReplayAppliesOnce(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 90})

	body := intentSucceededEvent(1, "pi_444")
	for i := 0; i < 3; i++ {
		if w := postWebhook(r, body, ""); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d", i+1, w.Code)
		}
	}
	if len(enroller.calls) != 1 {
		t.Errorf("enroll calls after 3 deliveries = %d, want 1", len(enroller.calls))
	}
}

func TestStripeWebhook_SignatureRequired(t *testing.T) {
	const secret = "whsec_test"
	_, payments, enroller, r := newStripeTestHandler(secret)
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 90})
	body := intentSucceededEvent(1, "pi_555")

	if w := postWebhook(r, body, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing signature: status = %d, want 400", w.Code)
	}
	if w := postWebhook(r, body, "t=123,v1=deadbeef"); w.Code != http.StatusBadRequest {
		t.Errorf("bad signature: status = %d, want 400", w.Code)
	}
	if len(enroller.calls) != 0 {
		t.Fatal("unsigned event was applied")
	}

	if w := postWebhook(r, body, signWebhook(body, secret)); w.Code != http.StatusOK {
		t.Errorf("valid signature: status = %d, want 200", w.Code)
	}
	if len(enroller.calls) != 1 {
		t.Errorf("enroll calls = %d, want 1", len(enroller.calls))
	}
}

func TestStripeWebhook_PaymentFailedEvent(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 90})

	body := `{"type": "payment_intent.payment_failed", "data": {"object": {"id": "pi_666", "metadata": {"payment_id": "1"}}}}`
	if w := postWebhook(r, body, ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if payments.rows[1].PaymentStatus != domain.PaymentFailed {
		t.Errorf("payment status = %s, want failed", payments.rows[1].PaymentStatus)
	}
	if len(enroller.calls) != 0 {
		t.Error("failed payment reached the membership service")
	}
}

func TestStripeWebhook_UnhandledEventIsAcked(t *testing.T) {
	_, _, enroller, r := newStripeTestHandler("")
	if w := postWebhook(r, `{"type": "customer.created", "data": {"object": {"id": "cus_1"}}}`, ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(enroller.calls) != 0 {
		t.Error("unhandled event was applied")
	}
}

func TestStripeConfirm_WrongUserRejected(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 2, PaymentStatus: domain.PaymentPending, DurationDays: 90})

	if w := postConfirm(r, 1, "pi_777"); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if len(enroller.calls) != 0 {
		t.Error("foreign payment was applied")
	}
}

func TestStripeCheckoutSessionEvent_UsesClientReferenceID(t *testing.T) {
	_, payments, enroller, r := newStripeTestHandler("")
	payments.Create(&models.Payment{UserID: 1, PaymentStatus: domain.PaymentPending, DurationDays: 90})

	body := `{"type": "checkout.session.completed", "data": {"object": {"id": "cs_1", "payment_status": "paid", "client_reference_id": "1"}}}`
	if w := postWebhook(r, body, ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if payments.rows[1].PaymentStatus != domain.PaymentCompleted {
		t.Error("session event did not settle the payment")
	}
	if len(enroller.calls) != 1 {
		t.Errorf("enroll calls = %d, want 1", len(enroller.calls))
	}
}
