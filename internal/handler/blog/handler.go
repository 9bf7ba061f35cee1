package blog

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/blog"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

type Handler struct {
	service *blog.Service
}

func NewHandler(service *blog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	public := r.Catalog.Group("/blog")
	{
		public.GET("", h.ListPosts)
		public.GET("/:slug", h.GetPost)
	}

	admin := r.Admin.Group("/blog")
	{
		admin.GET("", h.AdminListPosts)
		admin.POST("", h.CreatePost)
		admin.PATCH("/:id", h.UpdatePost)
		admin.DELETE("/:id", h.DeletePost)
	}
}

// ListPosts pages over the cached list of published posts.
func (h *Handler) ListPosts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		httputil.RespondWithError(c, errors.BadRequest("invalid page", err))
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		httputil.RespondWithError(c, errors.BadRequest("invalid page_size", err))
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	posts, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	start := len(posts)
	if page-1 <= len(posts)/pageSize {
		start = min((page-1)*pageSize, len(posts))
	}
	end := start + pageSize
	if end > len(posts) {
		end = len(posts)
	}
	httputil.RespondWithPagination(c, posts[start:end], page, pageSize, len(posts))
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, post)
}

func (h *Handler) AdminListPosts(c *gin.Context) {
	posts, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, posts)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req model.CreateBlogPostRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	post, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, post)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateBlogPostRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	post, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, post)
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}
