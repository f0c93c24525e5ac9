package handlers

import (
	"context"
	"errors"
	"time"

	"store-admin/internal/services"
	"store-admin/internal/storage"

	"github.com/gin-gonic/gin"
)

type MonitoringHandler struct {
	directory *services.AdminDirectory
	kv        storage.KV
}

func NewMonitoringHandler(directory *services.AdminDirectory, kv storage.KV) *MonitoringHandler {
	return &MonitoringHandler{directory: directory, kv: kv}
}

// Health reports whether the admin directory is loaded and the session
// store answers.
func (h *MonitoringHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	kvStatus := "ok"
	if _, err := h.kv.Get(ctx, "health:probe"); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		kvStatus = err.Error()
	}
	loaded := h.directory.Loaded()

	status, code := "ok", 200
	if !loaded || kvStatus != "ok" {
		status, code = "degraded", 503
	}

	c.JSON(code, gin.H{
		"status":          status,
		"message":         "Store admin API is running",
		"directoryLoaded": loaded,
		"accounts":        len(h.directory.List()),
		"sessionStore":    kvStatus,
	})
}
