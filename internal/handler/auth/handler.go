package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/model"
	authsvc "github.com/jwalitptl/clinic-portal/internal/service/auth"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, user *auth.Session) bool
}

type Handler struct {
	svc   *authsvc.Service
	admin AdminChecker
}

func NewHandler(svc *authsvc.Service, admin AdminChecker) *Handler {
	return &Handler{svc: svc, admin: admin}
}

func (h *Handler) RegisterRoutes(r handler.Routes) {
	public := r.Public.Group("/auth")
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.GET("/session", h.Session)
	}

	protected := r.Protected.Group("/auth")
	{
		protected.POST("/logout", h.Logout)
		protected.POST("/refresh", h.Refresh)
		protected.GET("/me", h.Me)
		protected.GET("/is-admin", h.IsAdmin)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

// Session reports the caller's auth state without requiring a session, so
// a front end can tell loading from signed out.
func (h *Handler) Session(c *gin.Context) {
	state := middleware.AuthState(c)
	httputil.RespondWithSuccess(c, gin.H{
		"loading": state.Loading,
		"user":    state.User,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"signed_out": true})
}

func (h *Handler) Refresh(c *gin.Context) {
	resp, err := h.svc.Refresh(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

// IsAdmin never fails; any problem answers false.
func (h *Handler) IsAdmin(c *gin.Context) {
	isAdmin := h.admin.IsAdmin(c.Request.Context(), middleware.CurrentUser(c))
	httputil.RespondWithSuccess(c, gin.H{"is_admin": isAdmin})
}
