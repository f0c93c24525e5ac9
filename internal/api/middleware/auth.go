package middleware

import (
	"errors"
	"strings"

	"store-admin/internal/models"
	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextSession    = "session"
	ContextUser       = "user"
	ContextSessionKey = "session_key"
)

// SessionToken extracts the bearer token from the Authorization header or,
// failing that, the session cookie.
func SessionToken(c *gin.Context, cookieName string) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, nil
		}
	}
	return "", nil
}

// resolveSession maps the request's token to a live session. hadToken
// tells a missing token apart from one whose session has ended.
func resolveSession(c *gin.Context, auth *services.AuthService, tokens *services.TokenService, cookieName string) (session *models.Session, hadToken bool, err error) {
	token, err := SessionToken(c, cookieName)
	if err != nil {
		return nil, true, services.ErrInvalidToken
	}
	if token == "" {
		return nil, false, nil
	}
	key, err := tokens.Parse(token)
	if err != nil {
		return nil, true, err
	}
	session, err = auth.Session(c.Request.Context(), key)
	if err != nil {
		return nil, true, err
	}
	// Sessions restored after a restart get their countdown back.
	auth.Idle().Ensure(key)
	return session, true, nil
}

func AuthMiddleware(auth *services.AuthService, tokens *services.TokenService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, hadToken, err := resolveSession(c, auth, tokens, cookieName)
		switch {
		case err == nil && session != nil:
		case !hadToken:
			c.JSON(401, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrNoSession):
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		default:
			c.JSON(500, gin.H{"error": "Failed to load session"})
			c.Abort()
			return
		}

		c.Set(ContextSession, session)
		c.Set(ContextUser, &session.Account)
		c.Set(ContextSessionKey, session.ID)

		c.Next()
	}
}

// CurrentSession returns the session stored by AuthMiddleware.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	v, exists := c.Get(ContextSession)
	if !exists {
		return nil, false
	}
	session, ok := v.(*models.Session)
	return session, ok
}

func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := CurrentSession(c)
		switch services.Guard(session, roles).Outcome {
		case services.OutcomeRedirectLogin:
			c.JSON(401, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		case services.OutcomeAccessDenied:
			c.JSON(403, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
