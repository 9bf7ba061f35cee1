package course

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/course"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

type Handler struct {
	service *course.Service
}

func NewHandler(service *course.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	catalog := r.Catalog.Group("/courses")
	{
		catalog.GET("", h.ListCourses)
		catalog.GET("/:slug", h.GetCourse)
	}

	courses := r.Admin.Group("/courses")
	{
		courses.GET("", h.AdminListCourses)
		courses.POST("", h.CreateCourse)
		courses.GET("/:id", h.AdminGetCourse)
		courses.PATCH("/:id", h.UpdateCourse)
		courses.DELETE("/:id", h.DeleteCourse)
		courses.POST("/:id/publish", h.Publish)
		courses.POST("/:id/unpublish", h.Unpublish)
		courses.POST("/:id/modules", h.CreateModule)
	}

	modules := r.Admin.Group("/modules")
	{
		modules.PATCH("/:id", h.UpdateModule)
		modules.DELETE("/:id", h.DeleteModule)
		modules.POST("/:id/lessons", h.CreateLesson)
	}

	lessons := r.Admin.Group("/lessons")
	{
		lessons.PATCH("/:id", h.UpdateLesson)
		lessons.DELETE("/:id", h.DeleteLesson)
	}
}

// ListCourses serves the last good catalog when a refresh fails.
func (h *Handler) ListCourses(c *gin.Context) {
	state := h.service.ObserveCatalog(c.Request.Context())
	if state.Status == query.StatusError && state.Data == nil {
		httputil.RespondWithError(c, state.Err)
		return
	}
	if state.Status == query.StatusError {
		c.Header("Warning", `110 - "response is stale"`)
	}
	courses := state.Data
	if courses == nil {
		courses = []*model.Course{}
	}
	httputil.RespondWithSuccess(c, courses)
}

func (h *Handler) GetCourse(c *gin.Context) {
	course, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, course)
}

func (h *Handler) AdminListCourses(c *gin.Context) {
	courses, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, courses)
}

func (h *Handler) AdminGetCourse(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	course, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, course)
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req model.CreateCourseRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, course)
}

func (h *Handler) UpdateCourse(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateCourseRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	course, err := h.service.UpdateCourse(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, course)
}

func (h *Handler) DeleteCourse(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}

func (h *Handler) Publish(c *gin.Context)   { h.setPublished(c, true) }
func (h *Handler) Unpublish(c *gin.Context) { h.setPublished(c, false) }

func (h *Handler) setPublished(c *gin.Context, published bool) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	course, err := h.service.SetPublished(c.Request.Context(), id, published)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, course)
}

func (h *Handler) CreateModule(c *gin.Context) {
	courseID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CreateModuleRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	module, err := h.service.CreateModule(c.Request.Context(), courseID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, module)
}

func (h *Handler) UpdateModule(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateModuleRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	module, err := h.service.UpdateModule(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, module)
}

func (h *Handler) DeleteModule(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteModule(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}

func (h *Handler) CreateLesson(c *gin.Context) {
	moduleID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CreateLessonRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	lesson, err := h.service.CreateLesson(c.Request.Context(), moduleID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, lesson)
}

func (h *Handler) UpdateLesson(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateLessonRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	lesson, err := h.service.UpdateLesson(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, lesson)
}

func (h *Handler) DeleteLesson(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteLesson(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}
