package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/guard"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

const (
	ContextAuthState = "auth_state"

	// retryAfter is sent with 503 while auth is still settling.
	retryAfter = 1 * time.Second

	defaultAdminWait = 2 * time.Second
)

// AdminChecker answers the admin question for a signed-in user. Peek must
// not call the backend.
type AdminChecker interface {
	IsAdmin(ctx context.Context, user *auth.Session) bool
	Peek(user *auth.Session) (isAdmin, loading bool)
}

type AuthMiddleware struct {
	sessions  *auth.Context
	admin     AdminChecker
	adminWait time.Duration
}

// NewAuthMiddleware builds the auth middlewares. adminWait bounds how long
// a request waits for an uncached admin check before it is answered as
// still loading.
func NewAuthMiddleware(sessions *auth.Context, admin AdminChecker, adminWait time.Duration) *AuthMiddleware {
	if adminWait <= 0 {
		adminWait = defaultAdminWait
	}
	return &AuthMiddleware{
		sessions:  sessions,
		admin:     admin,
		adminWait: adminWait,
	}
}

// Authenticate resolves the bearer token into an auth state for the rest of
// the chain. It never rejects a request; guards do that.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := m.sessions.Resolve(c.Request.Context(), bearerToken(c))
		c.Set(ContextAuthState, state)
		c.Next()
	}
}

// ProtectedRoute lets signed-in callers through.
func (m *AuthMiddleware) ProtectedRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := AuthState(c)
		outcome := guard.Evaluate(guard.Input{
			AuthLoading: state.Loading,
			User:        state.User,
		})
		respond(c, outcome)
	}
}

// AdminRoute lets signed-in admins through and shows everyone else signed
// in an access denied error.
func (m *AuthMiddleware) AdminRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := AuthState(c)
		in := guard.Input{
			AuthLoading:  state.Loading,
			User:         state.User,
			RequireAdmin: true,
		}
		if !state.Loading && state.User != nil {
			in.IsAdmin, in.AdminLoading = m.checkAdmin(c.Request.Context(), state.User)
		}
		respond(c, guard.Evaluate(in))
	}
}

// checkAdmin answers from cache when it can. Otherwise it starts the check
// and waits up to adminWait; a check still running after that is reported
// as loading and keeps going so the next request finds it cached.
func (m *AuthMiddleware) checkAdmin(ctx context.Context, user *auth.Session) (isAdmin, loading bool) {
	if isAdmin, loading := m.admin.Peek(user); !loading {
		return isAdmin, false
	}

	result := make(chan bool, 1)
	go func() {
		result <- m.admin.IsAdmin(context.WithoutCancel(ctx), user)
	}()

	t := time.NewTimer(m.adminWait)
	defer t.Stop()
	select {
	case v := <-result:
		return v, false
	case <-t.C:
		return false, true
	case <-ctx.Done():
		return false, true
	}
}

func respond(c *gin.Context, outcome guard.Outcome) {
	switch outcome {
	case guard.Render:
		c.Next()
	case guard.Loading:
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, httputil.Response{
			Status:  "loading",
			Message: "authentication is still loading",
		})
	case guard.Redirect:
		if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
			c.Redirect(http.StatusFound, guard.LoginPath)
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":   "error",
			"message":  "authentication required",
			"redirect": guard.LoginPath,
		})
	default:
		c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
			Status:  "error",
			Message: "access denied",
		})
	}
}

// AuthState returns the state set by Authenticate. Without it the caller
// is treated as signed out.
func AuthState(c *gin.Context) auth.State {
	if v, ok := c.Get(ContextAuthState); ok {
		if st, ok := v.(auth.State); ok {
			return st
		}
	}
	return auth.State{}
}

// CurrentUser is the signed-in session, or nil.
func CurrentUser(c *gin.Context) *auth.Session {
	return AuthState(c).User
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
