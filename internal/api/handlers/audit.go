package handlers

import (
	"strconv"
	"time"

	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	authService *services.AuthService
}

func NewAuditHandler(authService *services.AuthService) *AuditHandler {
	return &AuditHandler{authService: authService}
}

type DeleteLogsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

const dateLayout = "2006-01-02"

// GetLogs returns one filtered page of the audit trail
func (h *AuditHandler) GetLogs(c *gin.Context) {
	filter := services.AuditFilter{
		AdminUsername: c.Query("adminUsername"),
		Action:        c.Query("action"),
		EntityType:    c.Query("entityType"),
	}
	for param, dst := range map[string]*time.Time{"dateFrom": &filter.DateFrom, "dateTo": &filter.DateTo} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid " + param + ", expected YYYY-MM-DD"})
			return
		}
		*dst = t
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, res, err := h.authService.AuditLogs(c.Request.Context(), sessionKey(c), filter, page, limit)
	if err != nil || res != nil {
		respond(c, 200, deref(res), err, "Failed to get audit logs")
		return
	}

	c.JSON(200, result)
}

// GetRecent returns the newest entries
func (h *AuditHandler) GetRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.JSON(400, gin.H{"error": "Invalid limit"})
		return
	}

	logs, res, err := h.authService.RecentAuditLogs(c.Request.Context(), sessionKey(c), limit)
	if err != nil || res != nil {
		respond(c, 200, deref(res), err, "Failed to get audit logs")
		return
	}

	c.JSON(200, gin.H{"logs": logs})
}

// DeleteBulk removes entries by id
func (h *AuditHandler) DeleteBulk(c *gin.Context) {
	var req DeleteLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	res, err := h.authService.DeleteAuditLogs(c.Request.Context(), sessionKey(c), req.IDs)
	respond(c, 200, res, err, "Failed to delete audit logs")
}
