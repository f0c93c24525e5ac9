package handlers

import (
	"time"

	"store-admin/internal/api/middleware"
	"store-admin/internal/config"
	"store-admin/internal/models"
	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

// SessionTokens issues and reads the tokens that carry a session key.
type SessionTokens interface {
	Issue(sessionID, username, role string) (string, time.Time, error)
	Parse(token string) (string, error)
}

type AuthHandler struct {
	authService *services.AuthService
	tokens      SessionTokens
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, tokens SessionTokens, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		cfg:         cfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
	User      *models.AdminAccount `json:"user"`
}

type ActivityRequest struct {
	Signal string `json:"signal" binding:"required"`
}

// Login handles admin login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	session, ok, err := h.authService.Login(c.Request.Context(), "", req.Username, req.Password)
	if err != nil {
		c.Error(err)
		c.JSON(500, gin.H{"error": "Failed to create session"})
		return
	}
	if !ok {
		c.JSON(401, gin.H{"error": "Invalid credentials"})
		return
	}

	token, expiresAt, err := h.tokens.Issue(session.ID, session.Account.Username, session.Account.Role.String())
	if err != nil {
		c.Error(err)
		// Don't leave a session nobody can reach.
		if err := h.authService.Logout(c.Request.Context(), session.ID); err != nil {
			c.Error(err)
		}
		c.JSON(500, gin.H{"error": "Failed to generate token"})
		return
	}

	h.setCookie(c, token, int(time.Until(expiresAt).Seconds()))

	user := session.Account.Sanitized()
	c.JSON(200, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      &user,
	})
}

// Logout ends the session carried by the request, if any. It succeeds
// without one.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := middleware.SessionToken(c, h.cfg.Session.CookieName)
	if token != "" {
		if key, err := h.tokens.Parse(token); err == nil {
			if err := h.authService.Logout(c.Request.Context(), key); err != nil {
				c.Error(err)
				c.JSON(500, gin.H{"error": "Failed to logout"})
				return
			}
		}
	}

	h.setCookie(c, "", -1)
	c.JSON(200, gin.H{"message": "Logged out successfully"})
}

// GetMe returns the current admin
func (h *AuthHandler) GetMe(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(401, gin.H{"error": "Not authenticated"})
		return
	}

	user := session.Account.Sanitized()
	c.JSON(200, gin.H{
		"user":                     user,
		"inactivityTimeoutSeconds": int(h.authService.Idle().Timeout().Seconds()),
		"sessionCreatedAt":         session.CreatedAt,
	})
}

// Activity resets the inactivity countdown of the current session.
func (h *AuthHandler) Activity(c *gin.Context) {
	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	signal, ok := services.ParseActivitySignal(req.Signal)
	if !ok {
		c.JSON(400, gin.H{"error": "Unknown activity signal"})
		return
	}

	active := h.authService.Idle().Touch(sessionKey(c), signal)
	c.JSON(200, gin.H{"active": active})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	if h.cfg.Session.CookieName == "" {
		return
	}
	secure := c.Request.TLS != nil
	c.SetCookie(h.cfg.Session.CookieName, value, maxAge, "/", "", secure, true)
}
