package handlers

import (
	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves self-service changes of the signed-in admin.
type AccountHandler struct {
	authService *services.AuthService
}

func NewAccountHandler(authService *services.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type UpdateProfileRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := h.authService.ChangeOwnPassword(c.Request.Context(), sessionKey(c), req.CurrentPassword, req.NewPassword)
	respond(c, 200, res, err, "Failed to change password")
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := h.authService.ChangeOwnUsernameAndEmail(c.Request.Context(), sessionKey(c), req.Username, req.Email, req.CurrentPassword)
	respond(c, 200, res, err, "Failed to update profile")
}
