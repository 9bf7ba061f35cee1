package waitingroom

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/billing"
	"github.com/jwalitptl/clinic-portal/internal/service/waitingroom"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

type Handler struct {
	board   *waitingroom.Service
	billing *billing.Service
	now     func() time.Time
}

func NewHandler(board *waitingroom.Service, billingSvc *billing.Service) *Handler {
	return &Handler{board: board, billing: billingSvc, now: time.Now}
}

type DropRequest struct {
	Payload waitingroom.DragPayload `json:"payload"`
	Target  model.AppointmentStatus `json:"target" binding:"required"`
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	room := r.Admin.Group("/waiting-room")
	{
		room.GET("", h.GetBoard)
		room.POST("/drop", h.Drop)
	}

	r.Admin.GET("/billing", h.GetBilling)
}

func (h *Handler) today() time.Time {
	return h.now().UTC().Truncate(24 * time.Hour)
}

func (h *Handler) GetBoard(c *gin.Context) {
	day, ok := handler.QueryDay(c, "day", h.today())
	if !ok {
		return
	}

	board, err := h.board.Board(c.Request.Context(), day)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, board)
}

func (h *Handler) Drop(c *gin.Context) {
	var req DropRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appt, err := h.board.Drop(c.Request.Context(), req.Payload, req.Target)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

// GetBilling summarises [from, to), defaulting to the current month.
func (h *Handler) GetBilling(c *gin.Context) {
	today := h.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	from, ok := handler.QueryDay(c, "from", monthStart)
	if !ok {
		return
	}
	to, ok := handler.QueryDay(c, "to", monthStart.AddDate(0, 1, 0))
	if !ok {
		return
	}

	summary, err := h.billing.Summary(c.Request.Context(), from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}
