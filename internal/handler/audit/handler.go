package audit

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/service/audit"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	logs := r.Admin.Group("/integration-logs")
	{
		logs.GET("", h.ListLogs)
		logs.GET("/export", h.ExportLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid limit", err))
		return
	}

	logs, err := h.service.List(c.Request.Context(), c.Query("event_type"), limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, logs)
}

// ExportLogs streams the latest entries as CSV for spreadsheets.
func (h *Handler) ExportLogs(c *gin.Context) {
	logs, err := h.service.List(c.Request.Context(), c.Query("event_type"), 500)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("integration_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "event_type", "source", "created_at", "payload"})
	for _, l := range logs {
		payload, _ := l.Payload.Value()
		var raw string
		if b, ok := payload.([]byte); ok {
			raw = string(b)
		}
		_ = w.Write([]string{
			l.ID.String(),
			l.EventType,
			l.Source,
			l.CreatedAt.UTC().Format(time.RFC3339),
			raw,
		})
	}
	w.Flush()
}
