package handlers

import (
	"store-admin/internal/models"
	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService *services.AuthService
}

func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type CreateUserRequest struct {
	Username string      `json:"username" binding:"required"`
	Name     string      `json:"name"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	IsActive *bool       `json:"isActive"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// GetUsers returns all admin accounts
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, res, err := h.authService.AdminUsers(c.Request.Context(), sessionKey(c))
	if err != nil || res != nil {
		respond(c, 200, deref(res), err, "Failed to get users")
		return
	}

	c.JSON(200, gin.H{"users": users})
}

// CreateUser creates a new admin account
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	res, err := h.authService.AddAdminUser(c.Request.Context(), sessionKey(c), services.NewAdmin{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsActive: active,
	})
	respond(c, 201, res, err, "Failed to create user")
}

// UpdateUser updates name, email, role or active flag
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req services.AdminUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := h.authService.UpdateAdminUser(c.Request.Context(), sessionKey(c), c.Param("id"), req)
	respond(c, 200, res, err, "Failed to update user")
}

// ResetPassword sets another admin's password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := h.authService.ResetAdminPassword(c.Request.Context(), sessionKey(c), c.Param("id"), req.Password)
	respond(c, 200, res, err, "Failed to reset password")
}

// DeleteUser deletes an admin account
func (h *UserHandler) DeleteUser(c *gin.Context) {
	res, err := h.authService.DeleteAdminUser(c.Request.Context(), sessionKey(c), c.Param("id"))
	respond(c, 200, res, err, "Failed to delete user")
}

func deref(res *services.Result) services.Result {
	if res == nil {
		return services.Result{}
	}
	return *res
}
