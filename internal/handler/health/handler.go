package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-portal/internal/auth"
)

const pingTimeout = 2 * time.Second

// SessionState reports whether the session registry has finished restoring.
type SessionState interface {
	State() auth.State
}

type Handler struct {
	db       *sqlx.DB
	sessions SessionState
}

func NewHandler(db *sqlx.DB, sessions SessionState) *Handler {
	return &Handler{db: db, sessions: sessions}
}

// RegisterRoutes mounts on the engine root so probes bypass the API
// middleware chain.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.sessions != nil && h.sessions.State().Loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Sessions are still loading",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
