package enrollment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/checkout"
	"github.com/jwalitptl/clinic-portal/internal/service/enrollment"
	"github.com/jwalitptl/clinic-portal/internal/service/progress"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

// Handler serves the learner side of the academy: enrollments, lesson
// progress and checkout.
type Handler struct {
	enrollments *enrollment.Service
	progress    *progress.Service
	gateway     checkout.Gateway
}

func NewHandler(enrollments *enrollment.Service, progress *progress.Service, gateway checkout.Gateway) *Handler {
	return &Handler{enrollments: enrollments, progress: progress, gateway: gateway}
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	me := r.Protected.Group("/me")
	{
		me.GET("/enrollments", h.ListEnrollments)
		me.GET("/enrollments/:courseId", h.IsEnrolled)
		me.GET("/progress", h.CourseProgress)
		me.GET("/courses/:courseId/completed-lessons", h.CompletedLessons)
		me.POST("/lessons/:lessonId/complete", h.MarkComplete)
		me.DELETE("/lessons/:lessonId/complete", h.MarkIncomplete)
	}

	r.Protected.POST("/checkout", h.Checkout)
}

func (h *Handler) ListEnrollments(c *gin.Context) {
	list, err := h.enrollments.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) IsEnrolled(c *gin.Context) {
	courseID, ok := handler.ParamUUID(c, "courseId")
	if !ok {
		return
	}
	enrolled, err := h.enrollments.IsEnrolled(c.Request.Context(), middleware.CurrentUser(c), courseID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"enrolled": enrolled})
}

func (h *Handler) CourseProgress(c *gin.Context) {
	rows, err := h.progress.CourseProgress(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rows)
}

func (h *Handler) CompletedLessons(c *gin.Context) {
	courseID, ok := handler.ParamUUID(c, "courseId")
	if !ok {
		return
	}
	ids, err := h.progress.CompletedLessons(c.Request.Context(), middleware.CurrentUser(c), courseID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ids)
}

func (h *Handler) MarkComplete(c *gin.Context)   { h.setComplete(c, true) }
func (h *Handler) MarkIncomplete(c *gin.Context) { h.setComplete(c, false) }

func (h *Handler) setComplete(c *gin.Context, done bool) {
	lessonID, ok := handler.ParamUUID(c, "lessonId")
	if !ok {
		return
	}

	var err error
	if done {
		err = h.progress.MarkComplete(c.Request.Context(), middleware.CurrentUser(c), lessonID)
	} else {
		err = h.progress.MarkIncomplete(c.Request.Context(), middleware.CurrentUser(c), lessonID)
	}
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"lesson_id": lessonID, "completed": done})
}

// Checkout runs the payment gateway for a course. An unsuccessful payment
// is still a 200; the client follows redirect_url either way.
func (h *Handler) Checkout(c *gin.Context) {
	var req model.EnrollRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.gateway.InitiateCheckout(c.Request.Context(), req.CourseID, middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}
