package handler

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coursepass/config"
	"coursepass/internal/domain"
	"coursepass/internal/middleware"
	"coursepass/internal/models"
	"coursepass/pkg/payment"

	"github.com/gin-gonic/gin"
)

// PaymentStore is the payment persistence surface gateway handlers need.
// *repository.PaymentRepository satisfies it; tests use an in-memory fake.
type PaymentStore interface {
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByTransactionID(txnID string) (*models.Payment, error)
	Complete(id uint, txnID string) (bool, error)
	MarkFailed(id uint) error
}

// MembershipEnroller applies a settled purchase to the user's membership.
type MembershipEnroller interface {
	CreateOrExtend(userID uint, duration int, paymentID uint, enrollmentType string, isTrial bool) (uint, error)
}

type PayPalHandler struct {
	cfg       *config.Config
	provider  *payment.PayPalProvider
	payments  PaymentStore
	enrollers MembershipEnroller
	users     UserGetter
	notifier  PaymentNotifier
}

// PaymentNotifier records the payment-settled notice. Optional.
type PaymentNotifier interface {
	PaymentConfirmed(userID uint, amount float64, currency, reference string)
}

func NewPayPalHandler(cfg *config.Config, provider *payment.PayPalProvider, payments PaymentStore, enroller MembershipEnroller, users UserGetter, notifier PaymentNotifier) *PayPalHandler {
	return &PayPalHandler{
		cfg:       cfg,
		provider:  provider,
		payments:  payments,
		enrollers: enroller,
		users:     users,
		notifier:  notifier,
	}
}

type CheckoutPlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// Checkout records a pending payment and returns the hosted PayPal form.
func (h *PayPalHandler) Checkout(c *gin.Context) {
	if !h.cfg.PayPal.Enabled || !h.provider.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "paypal payments are not available"})
		return
	}
	var req CheckoutPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, ok := domain.PricingPlans[req.Plan]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	userID := middleware.GetUserID(c)
	u, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	p := &models.Payment{
		UserID:        userID,
		Amount:        plan.Price,
		Currency:      "USD",
		PaymentMethod: domain.MethodPayPal,
		PaymentStatus: domain.PaymentPending,
		PaymentType:   plan.Type,
		DurationDays:  plan.DurationDays,
		PaymentDate:   time.Now(),
	}
	if err := h.payments.Create(p); err != nil {
		log.Printf("[paypal] create payment row: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start checkout"})
		return
	}

	endpoint, fields := h.provider.CheckoutForm(payment.CheckoutRequest{
		PaymentID:    p.ID,
		UserID:       userID,
		Amount:       plan.Price,
		Currency:     "USD",
		DurationDays: plan.DurationDays,
		PaymentType:  plan.Type,
		PlanLabel:    plan.Label,
		Email:        u.Email,
		ReturnURL:    h.cfg.Pages.AccountURL + "?payment=success",
		CancelURL:    h.cfg.Pages.AccountURL + "?payment=cancelled",
		NotifyURL:    h.cfg.PayPal.NotifyBaseURL + "/api/v1/webhooks/paypal/ipn",
	})
	c.JSON(http.StatusOK, gin.H{
		"payment_id": p.ID,
		"action":     endpoint,
		"fields":     fields,
	})
}

// HandleIPN processes PayPal's asynchronous payment notification. The body
// is re-posted to PayPal verbatim for verification before anything is
// trusted. Always acks 200 once the payload parses, failures included, so
// PayPal stops retrying; only a malformed body earns a 400.
func (h *PayPalHandler) HandleIPN(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	ok, err := h.provider.VerifyIPN(c.Request.Context(), string(raw))
	if err != nil {
		log.Printf("[paypal] IPN verification request failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if !ok {
		log.Printf("[paypal] IPN rejected: txn_id=%s", values.Get("txn_id"))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	txnID := values.Get("txn_id")
	status := values.Get("payment_status")
	if txnID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// Replay guard: a transaction already settled is acked and ignored.
	if existing, err := h.payments.GetByTransactionID(txnID); err == nil && existing.PaymentStatus == domain.PaymentCompleted {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if !strings.EqualFold(status, "Completed") {
		if id, perr := strconv.ParseUint(values.Get("item_number"), 10, 32); perr == nil {
			if ferr := h.payments.MarkFailed(uint(id)); ferr != nil {
				log.Printf("[paypal] mark payment %d failed: %v", id, ferr)
			}
		}
		log.Printf("[paypal] IPN status %q for txn %s, no action", status, txnID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	userID, days, payType, ok := parseCustom(values.Get("custom"))
	if !ok {
		log.Printf("[paypal] IPN missing custom field, txn %s", txnID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var paymentID uint
	if id, perr := strconv.ParseUint(values.Get("item_number"), 10, 32); perr == nil {
		paymentID = uint(id)
	}

	settled := false
	if paymentID != 0 {
		if _, gerr := h.payments.GetByID(paymentID); gerr != nil {
			paymentID = 0 // stale item_number, record the transaction fresh
		} else {
			done, cerr := h.payments.Complete(paymentID, txnID)
			if cerr != nil {
				log.Printf("[paypal] complete payment %d: %v", paymentID, cerr)
			}
			settled = done
		}
	}
	if paymentID == 0 {
		// No pending row to settle (checkout started outside the API);
		// record the transaction directly so the ledger stays complete.
		amount, _ := strconv.ParseFloat(values.Get("mc_gross"), 64)
		tid := txnID
		p := &models.Payment{
			UserID:        userID,
			Amount:        amount,
			Currency:      values.Get("mc_currency"),
			PaymentMethod: domain.MethodPayPal,
			TransactionID: &tid,
			PaymentStatus: domain.PaymentCompleted,
			PaymentType:   payType,
			DurationDays:  days,
			PaymentDate:   time.Now(),
		}
		if cerr := h.payments.Create(p); cerr != nil {
			// Unique index on transaction_id: a concurrent delivery won.
			log.Printf("[paypal] record txn %s: %v", txnID, cerr)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		paymentID = p.ID
		settled = true
	}
	if !settled {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if _, err := h.enrollers.CreateOrExtend(userID, days, paymentID, domain.EnrollmentBoth, false); err != nil {
		// The payment is settled; the membership write is retried by support,
		// never by failing the ack.
		log.Printf("[paypal] membership update for user %d after txn %s: %v", userID, txnID, err)
	} else if h.notifier != nil {
		amount, _ := strconv.ParseFloat(values.Get("mc_gross"), 64)
		h.notifier.PaymentConfirmed(userID, amount, values.Get("mc_currency"), txnID)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// parseCustom unpacks the user|days|type checkout passthrough.
func parseCustom(custom string) (userID uint, days int, payType string, ok bool) {
	parts := strings.Split(custom, "|")
	if len(parts) != 3 {
		return 0, 0, "", false
	}
	uid, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil || uid == 0 {
		return 0, 0, "", false
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil || d <= 0 {
		return 0, 0, "", false
	}
	return uint(uid), d, parts[2], true
}
