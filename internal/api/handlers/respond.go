package handlers

import (
	"store-admin/internal/api/middleware"
	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

var failureStatus = map[services.FailureKind]int{
	services.FailureInvalid:         400,
	services.FailureUnauthenticated: 401,
	services.FailureUnauthorized:    403,
	services.FailureNotFound:        404,
}

// respond renders the outcome of an AuthService operation. Business
// failures keep the {success, message} shape so the admin UI can show the
// message as is.
func respond(c *gin.Context, okStatus int, res services.Result, err error, failMsg string) {
	if err != nil {
		c.Error(err)
		c.JSON(500, gin.H{"error": failMsg, "details": err.Error()})
		return
	}
	if !res.Success {
		status, ok := failureStatus[res.Failure]
		if !ok {
			status = 400
		}
		c.JSON(status, res)
		return
	}
	c.JSON(okStatus, res)
}

func sessionKey(c *gin.Context) string {
	return c.GetString(middleware.ContextSessionKey)
}
