package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PingFunc reports whether a backing dependency is reachable.
type PingFunc func() error

type HealthHandler struct {
	checks map[string]PingFunc
}

// create a new instance of the health handler; nil checks are skipped
func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	failed := make([]string, 0)

	for name, ping := range h.checks {
		if ping == nil {
			continue
		}
		if err := ping(); err != nil {
			slog.Default().WarnContext(ctx.Request.Context(), "readiness_check_failed", "dependency", name, "err", err)
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failed": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
