package handler

import (
	"net/http"
	"strconv"

	"coursepass/internal/models"

	"github.com/gin-gonic/gin"
)

// MembershipLister is the admin listing surface.
type MembershipLister interface {
	List(status string, limit, offset int) ([]models.Membership, error)
}

// PaymentLister is the admin payment ledger surface.
type PaymentLister interface {
	List(status string, limit, offset int) ([]models.Payment, error)
}

type AdminHandler struct {
	memberships MembershipLister
	payments    PaymentLister
}

func NewAdminHandler(memberships MembershipLister, payments PaymentLister) *AdminHandler {
	return &AdminHandler{memberships: memberships, payments: payments}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Members lists memberships, optionally filtered by status.
func (h *AdminHandler) Members(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.memberships.List(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": list, "limit": limit, "offset": offset})
}

// Payments lists the payment ledger, optionally filtered by status.
func (h *AdminHandler) Payments(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.payments.List(c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list, "limit": limit, "offset": offset})
}
