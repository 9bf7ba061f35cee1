package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/appointment"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

// defaultWindow is the range listed when no from/to is given.
const defaultWindow = 7 * 24 * time.Hour

type Handler struct {
	service *appointment.Service
	now     func() time.Time
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	r.Catalog.GET("/professionals", h.ListProfessionals)
	r.Catalog.GET("/consultation-types", h.ListConsultationTypes)
	r.Public.POST("/appointments", h.Book)

	r.Admin.GET("/appointments", h.ListAppointments)
}

func (h *Handler) ListProfessionals(c *gin.Context) {
	professionals, err := h.service.Professionals(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, professionals)
}

func (h *Handler) ListConsultationTypes(c *gin.Context) {
	types, err := h.service.ConsultationTypes(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, types)
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appt, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

// ListAppointments lists appointments in [from, to), a week from today by
// default, optionally narrowed by professional_id and status.
func (h *Handler) ListAppointments(c *gin.Context) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	from, ok := handler.QueryDay(c, "from", today)
	if !ok {
		return
	}
	to, ok := handler.QueryDay(c, "to", from.Add(defaultWindow))
	if !ok {
		return
	}

	filters := &model.AppointmentFilters{From: from, To: to}
	if v := c.Query("professional_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid professional_id", err))
			return
		}
		filters.ProfessionalID = &id
	}
	if v := c.Query("status"); v != "" {
		status := model.AppointmentStatus(v)
		if !status.Valid() {
			httputil.RespondWithError(c, errors.BadRequest("invalid status", nil))
			return
		}
		filters.Status = &status
	}

	appts, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}
