package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"coursepass/config"
	"coursepass/internal/domain"
	"coursepass/internal/middleware"
	"coursepass/internal/models"
	"coursepass/pkg/payment"

	"github.com/gin-gonic/gin"
)

type StripeHandler struct {
	cfg      *config.Config
	provider *payment.StripeProvider
	payments PaymentStore
	enroller MembershipEnroller
	users    UserGetter
	notifier PaymentNotifier
}

func NewStripeHandler(cfg *config.Config, provider *payment.StripeProvider, payments PaymentStore, enroller MembershipEnroller, users UserGetter, notifier PaymentNotifier) *StripeHandler {
	return &StripeHandler{
		cfg:      cfg,
		provider: provider,
		payments: payments,
		enroller: enroller,
		users:    users,
		notifier: notifier,
	}
}

// newPendingPayment records the pending row both Stripe flows start from.
func (h *StripeHandler) newPendingPayment(c *gin.Context) (*models.Payment, *domain.PricingPlan, *models.User, bool) {
	if !h.cfg.Stripe.Enabled || !h.provider.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stripe payments are not available"})
		return nil, nil, nil, false
	}
	var req CheckoutPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, nil, false
	}
	plan, ok := domain.PricingPlans[req.Plan]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return nil, nil, nil, false
	}
	userID := middleware.GetUserID(c)
	u, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, nil, nil, false
	}
	p := &models.Payment{
		UserID:        userID,
		Amount:        plan.Price,
		Currency:      "USD",
		PaymentMethod: domain.MethodStripe,
		PaymentStatus: domain.PaymentPending,
		PaymentType:   plan.Type,
		DurationDays:  plan.DurationDays,
		PaymentDate:   time.Now(),
	}
	if err := h.payments.Create(p); err != nil {
		log.Printf("[stripe] create payment row: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start checkout"})
		return nil, nil, nil, false
	}
	return p, &plan, u, true
}

// CreateCheckoutSession starts the hosted checkout flow.
func (h *StripeHandler) CreateCheckoutSession(c *gin.Context) {
	p, plan, u, ok := h.newPendingPayment(c)
	if !ok {
		return
	}
	sess, err := h.provider.CreateCheckoutSession(c.Request.Context(), payment.CheckoutRequest{
		PaymentID:    p.ID,
		UserID:       p.UserID,
		Amount:       plan.Price,
		Currency:     "USD",
		DurationDays: plan.DurationDays,
		PaymentType:  plan.Type,
		PlanLabel:    plan.Label,
		Email:        u.Email,
		ReturnURL:    h.cfg.Pages.AccountURL + "?payment=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:    h.cfg.Pages.AccountURL + "?payment=cancelled",
	})
	if err != nil {
		log.Printf("[stripe] create checkout session: %v", err)
		if ferr := h.payments.MarkFailed(p.ID); ferr != nil {
			log.Printf("[stripe] mark payment %d failed: %v", p.ID, ferr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start checkout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_id":   p.ID,
		"session_id":   sess.ID,
		"checkout_url": sess.URL,
	})
}

// CreatePaymentIntent starts the inline elements flow and returns the
// client secret for browser-side confirmation.
func (h *StripeHandler) CreatePaymentIntent(c *gin.Context) {
	p, plan, u, ok := h.newPendingPayment(c)
	if !ok {
		return
	}
	intent, err := h.provider.CreatePaymentIntent(c.Request.Context(), payment.CheckoutRequest{
		PaymentID:    p.ID,
		UserID:       p.UserID,
		Amount:       plan.Price,
		Currency:     "USD",
		DurationDays: plan.DurationDays,
		PaymentType:  plan.Type,
		PlanLabel:    plan.Label,
		Email:        u.Email,
	})
	if err != nil {
		log.Printf("[stripe] create payment intent: %v", err)
		if ferr := h.payments.MarkFailed(p.ID); ferr != nil {
			log.Printf("[stripe] mark payment %d failed: %v", p.ID, ferr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_id":    p.ID,
		"intent_id":     intent.ID,
		"client_secret": intent.ClientSecret,
	})
}

type ConfirmPaymentRequest struct {
	PaymentID     uint   `json:"payment_id" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"` // payment intent or session id
}

// ConfirmPayment is the synchronous settle path: the browser reports a
// succeeded intent back to us. It races the webhook; the pending->completed
// transition in the store lets exactly one of them win, and the loser is a
// clean no-op.
func (h *StripeHandler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.payments.GetByID(req.PaymentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if p.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your payment"})
		return
	}
	if p.PaymentStatus == domain.PaymentFailed {
		c.JSON(http.StatusConflict, gin.H{"error": "payment already failed"})
		return
	}
	h.settle(p, req.TransactionID)
	c.JSON(http.StatusOK, gin.H{"status": domain.PaymentCompleted, "payment_id": p.ID})
}

// stripeEvent is the subset of the webhook envelope we read.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id"`
			Metadata          map[string]string `json:"metadata"`
			PaymentStatus     string            `json:"payment_status"` // checkout.session
			Status            string            `json:"status"`         // payment_intent
		} `json:"object"`
	} `json:"data"`
}

// HandleWebhook settles asynchronous Stripe events. Signature verification
// runs when a webhook secret is configured. Like the PayPal path, anything
// past payload parsing acks 200.
func (h *StripeHandler) HandleWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if h.cfg.Stripe.WebhookSecret != "" {
		if !payment.VerifyWebhookSignature(raw, c.GetHeader("Stripe-Signature"), h.cfg.Stripe.WebhookSecret) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
	}
	var ev stripeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	switch ev.Type {
	case "checkout.session.completed":
		if ev.Data.Object.PaymentStatus != "" && ev.Data.Object.PaymentStatus != "paid" {
			break
		}
		h.settleFromEvent(&ev)
	case "payment_intent.succeeded":
		h.settleFromEvent(&ev)
	case "payment_intent.payment_failed":
		if id := eventPaymentID(&ev); id != 0 {
			if ferr := h.payments.MarkFailed(id); ferr != nil {
				log.Printf("[stripe] mark payment %d failed: %v", id, ferr)
			}
		}
	default:
		// Unhandled event types are acked and dropped.
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func eventPaymentID(ev *stripeEvent) uint {
	ref := ev.Data.Object.Metadata["payment_id"]
	if ref == "" {
		ref = ev.Data.Object.ClientReferenceID
	}
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

func (h *StripeHandler) settleFromEvent(ev *stripeEvent) {
	paymentID := eventPaymentID(ev)
	if paymentID == 0 {
		log.Printf("[stripe] event %s carries no payment reference, object %s", ev.Type, ev.Data.Object.ID)
		return
	}
	p, err := h.payments.GetByID(paymentID)
	if err != nil {
		log.Printf("[stripe] event %s references unknown payment %d", ev.Type, paymentID)
		return
	}
	h.settle(p, ev.Data.Object.ID)
}

// settle runs the single pending->completed transition and, when it wins,
// applies the purchase to the membership. Safe to call from both the
// webhook and the confirm endpoint.
func (h *StripeHandler) settle(p *models.Payment, txnID string) {
	won, err := h.payments.Complete(p.ID, txnID)
	if err != nil {
		log.Printf("[stripe] complete payment %d: %v", p.ID, err)
		return
	}
	if !won {
		return
	}
	if _, err := h.enroller.CreateOrExtend(p.UserID, p.DurationDays, p.ID, domain.EnrollmentBoth, false); err != nil {
		log.Printf("[stripe] membership update for user %d after payment %d: %v", p.UserID, p.ID, err)
		return
	}
	if h.notifier != nil {
		h.notifier.PaymentConfirmed(p.UserID, p.Amount, p.Currency, txnID)
	}
}
