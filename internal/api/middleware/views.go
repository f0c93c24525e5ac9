package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

// ViewGuard protects the admin SPA views. Anonymous visitors go to the
// login view, visitors whose session has ended go to the landing view and
// roles outside a view's whitelist go to the dashboard with a notice.
func ViewGuard(auth *services.AuthService, tokens *services.TokenService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, guarded := services.ViewRoles(c.Request.URL.Path)
		if !guarded {
			c.Next()
			return
		}

		session, hadToken, err := resolveSession(c, auth, tokens, cookieName)
		if err != nil && !errors.Is(err, services.ErrInvalidToken) && !errors.Is(err, services.ErrNoSession) {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if session == nil && hadToken {
			if cookieName != "" {
				c.SetCookie(cookieName, "", -1, "/", "", false, true)
			}
			c.Redirect(http.StatusFound, services.LandingView)
			c.Abort()
			return
		}

		decision := services.Guard(session, roles)
		switch decision.Outcome {
		case services.OutcomeRedirectLogin:
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		case services.OutcomeAccessDenied:
			c.Redirect(http.StatusFound, decision.Redirect+"?notice="+url.QueryEscape(decision.Notice))
			c.Abort()
			return
		}

		c.Set(ContextSession, session)
		c.Next()
	}
}
