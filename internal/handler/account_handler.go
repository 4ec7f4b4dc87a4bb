package handler

import (
	"log"
	"net/http"
	"strconv"

	"coursepass/internal/middleware"
	"coursepass/internal/models"
	"coursepass/internal/repository"
	"coursepass/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	authSvc   *service.AuthService
	memberSvc *service.MembershipService
	users     UserGetter
	payments  PaymentHistory
	notifs    *repository.NotificationRepository
}

// PaymentHistory lists the signed-in user's payments.
type PaymentHistory interface {
	ListByUser(userID uint) ([]models.Payment, error)
}

func NewAccountHandler(authSvc *service.AuthService, memberSvc *service.MembershipService, users UserGetter, payments PaymentHistory, notifs *repository.NotificationRepository) *AccountHandler {
	return &AccountHandler{
		authSvc:   authSvc,
		memberSvc: memberSvc,
		users:     users,
		payments:  payments,
		notifs:    notifs,
	}
}

func (h *AccountHandler) Me(c *gin.Context) {
	u, err := h.users.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Membership returns the account page's membership summary.
func (h *AccountHandler) Membership(c *gin.Context) {
	userID := middleware.GetUserID(c)
	m, err := h.memberSvc.Membership(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load membership"})
		return
	}
	if m == nil {
		c.JSON(http.StatusOK, gin.H{"membership": nil, "days_remaining": 0, "active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"membership":     m,
		"days_remaining": h.memberSvc.DaysRemaining(userID),
		"active":         h.memberSvc.HasActiveMembership(userID),
	})
}

func (h *AccountHandler) Payments(c *gin.Context) {
	list, err := h.payments.ListByUser(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

type UpdateEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) UpdateEmail(c *gin.Context) {
	var req UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.authSvc.UpdateEmail(middleware.GetUserID(c), req.Email, req.Password)
	switch err {
	case nil:
		c.JSON(http.StatusOK, gin.H{"message": "email updated"})
	case service.ErrInvalidCreds:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case service.ErrEmailExists:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[account] email update: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "email update failed"})
	}
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *AccountHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.authSvc.UpdatePassword(middleware.GetUserID(c), req.CurrentPassword, req.NewPassword)
	switch err {
	case nil:
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	case service.ErrInvalidCreds:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("[account] password update: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password update failed"})
	}
}

func (h *AccountHandler) Notifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := h.notifs.ListByUser(middleware.GetUserID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *AccountHandler) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.notifs.MarkRead(uint(id), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}
