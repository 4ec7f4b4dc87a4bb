package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"coursepass/config"
	"coursepass/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type GoogleOAuthHandler struct {
	cfg    *config.Config
	svc    *service.AuthService
	oauth  *oauth2.Config
	client *http.Client
}

func NewGoogleOAuthHandler(cfg *config.Config, svc *service.AuthService) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		cfg: cfg,
		svc: svc,
		oauth: &oauth2.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		client: http.DefaultClient,
	}
}

func (h *GoogleOAuthHandler) configured() bool {
	return h.cfg.OAuth.GoogleClientID != "" && h.cfg.OAuth.GoogleClientSecret != ""
}

// Redirect sends the browser to Google's consent screen.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	if !h.configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sign-in is not available"})
		return
	}
	state := uuid.New().String()
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Callback exchanges the authorization code, fetches the profile, and signs
// the user in (creating or linking the account as needed).
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if !h.configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sign-in is not available"})
		return
	}
	if cookie, err := c.Cookie("oauth_state"); err != nil || cookie != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	token, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("[oauth] code exchange failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google sign-in failed"})
		return
	}
	resp, err := h.oauth.Client(c.Request.Context(), token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Printf("[oauth] userinfo fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "google sign-in failed"})
		return
	}
	defer resp.Body.Close()
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.ID == "" || info.Email == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "google sign-in failed"})
		return
	}
	u, access, refresh, isNew, err := h.svc.LoginWithGoogle(info.ID, info.Email, info.Name)
	if err != nil {
		log.Printf("[oauth] sign-in for %s: %v", info.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google sign-in failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
		"is_new":        isNew,
	})
}

type GoogleTokenRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// Token signs in a mobile client that already holds a Google ID token,
// verified against the tokeninfo endpoint.
func (h *GoogleOAuthHandler) Token(c *gin.Context) {
	if !h.configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sign-in is not available"})
		return
	}
	var req GoogleTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.client.Get("https://oauth2.googleapis.com/tokeninfo?id_token=" + req.IDToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "token verification failed"})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid google token"})
		return
	}
	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Aud   string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil || claims.Sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid google token"})
		return
	}
	if claims.Aud != h.cfg.OAuth.GoogleClientID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token audience mismatch"})
		return
	}
	u, access, refresh, isNew, err := h.svc.LoginWithGoogle(claims.Sub, claims.Email, claims.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google sign-in failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
		"is_new":        isNew,
	})
}
