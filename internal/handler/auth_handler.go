package handler

import (
	"errors"
	"log"
	"net/http"

	"coursepass/config"
	"coursepass/internal/models"
	"coursepass/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserGetter is the user lookup surface handlers need.
type UserGetter interface {
	GetByID(id uint) (*models.User, error)
}

type AuthHandler struct {
	cfg       *config.Config
	svc       *service.AuthService
	memberSvc *service.MembershipService
	userRepo  AvailabilityChecker
}

// AvailabilityChecker answers the registration form's duplicate checks.
type AvailabilityChecker interface {
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

func NewAuthHandler(cfg *config.Config, svc *service.AuthService, memberSvc *service.MembershipService, userRepo AvailabilityChecker) *AuthHandler {
	return &AuthHandler{cfg: cfg, svc: svc, memberSvc: memberSvc, userRepo: userRepo}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type TrialRegisterRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=64"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	EnrollmentType string `json:"enrollment_type" binding:"required,oneof=general_training academic"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch err {
		case service.ErrEmailExists, service.ErrUsernameExists:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[auth] register failed: email=%s err=%v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// RegisterTrial creates the account and starts the free trial in one step.
// One trial per email address, ever.
func (h *AuthHandler) RegisterTrial(c *gin.Context) {
	if !h.cfg.Trial.Enabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "free trial is not available"})
		return
	}
	var req TrialRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	eligible, err := h.memberSvc.IsTrialEligible(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	if !eligible {
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrTrialUsed.Error()})
		return
	}
	u, access, refresh, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch err {
		case service.ErrEmailExists, service.ErrUsernameExists:
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Printf("[auth] trial register failed: email=%s err=%v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	if err := h.memberSvc.MarkTrialUsed(req.Email, u.ID); err != nil {
		// Unique index lost the race to a concurrent signup with the same email.
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrTrialUsed.Error()})
		return
	}
	if _, err := h.memberSvc.CreateOrExtend(u.ID, h.cfg.Trial.DurationHours, 0, req.EnrollmentType, true); err != nil {
		log.Printf("[auth] trial membership for user %d: %v", u.ID, err)
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
		"trial_hours":   h.cfg.Trial.DurationHours,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.svc.Login(req.Login, req.Password)
	if err != nil {
		if err == service.ErrInvalidCreds {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[auth] login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	access, refresh, err := h.svc.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "refresh_token": refresh})
}

// Availability answers the registration form's live username/email checks.
func (h *AuthHandler) Availability(c *gin.Context) {
	username := c.Query("username")
	email := c.Query("email")
	if username == "" && email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or email required"})
		return
	}
	out := gin.H{}
	if username != "" {
		_, err := h.userRepo.GetByUsername(username)
		out["username_available"] = errors.Is(err, gorm.ErrRecordNotFound)
	}
	if email != "" {
		_, err := h.userRepo.GetByEmail(email)
		out["email_available"] = errors.Is(err, gorm.ErrRecordNotFound)
	}
	c.JSON(http.StatusOK, out)
}

type ForgotPasswordRequest struct {
	Login string `json:"login" binding:"required"` // username or email
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.RequestPasswordReset(req.Login); err != nil {
		log.Printf("[auth] password reset request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process reset request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ResetPassword(req.Token, req.Password); err != nil {
		if err == service.ErrResetInvalid {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}
