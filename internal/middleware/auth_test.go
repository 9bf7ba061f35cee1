package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/auth"
)

type fakeAdmin struct {
	admins map[uuid.UUID]bool
	delay  time.Duration
	cached map[uuid.UUID]bool
}

func (f *fakeAdmin) IsAdmin(ctx context.Context, user *auth.Session) bool {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.admins[user.UserID]
}

func (f *fakeAdmin) Peek(user *auth.Session) (bool, bool) {
	v, ok := f.cached[user.UserID]
	return v, !ok
}

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, admin *fakeAdmin, started bool) (*gin.Engine, *auth.Context) {
	t.Helper()
	sessions := auth.NewContext(auth.NewMemoryStore(), auth.NewTokenIssuer("test-secret", time.Hour))
	if started {
		require.NoError(t, sessions.Start(context.Background()))
		t.Cleanup(sessions.Close)
	}

	m := NewAuthMiddleware(sessions, admin, 50*time.Millisecond)
	r := gin.New()
	r.Use(m.Authenticate())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/dashboard", m.ProtectedRoute(), ok)
	r.GET("/admin", m.AdminRoute(), ok)
	return r, sessions
}

func signIn(t *testing.T, sessions *auth.Context, userID uuid.UUID) string {
	t.Helper()
	s := &auth.Session{ID: uuid.NewString(), UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
	token, err := sessions.SignIn(context.Background(), s)
	require.NoError(t, err)
	return token
}

func do(r *gin.Engine, path, token, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGuardWhileAuthLoading(t *testing.T) {
	r, _ := setup(t, &fakeAdmin{}, false)

	w := do(r, "/dashboard", "", "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Empty(t, w.Header().Get("Location"))
}

func TestGuardRedirectsSignedOut(t *testing.T) {
	r, _ := setup(t, &fakeAdmin{}, true)

	w := do(r, "/dashboard", "", "application/json")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/login", body["redirect"])

	w = do(r, "/admin", "garbage", "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGuardDeniesNonAdminWithoutRedirect(t *testing.T) {
	r, sessions := setup(t, &fakeAdmin{admins: map[uuid.UUID]bool{}}, true)
	token := signIn(t, sessions, uuid.New())

	w := do(r, "/dashboard", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "/admin", token, "text/html")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestGuardRendersForAdmin(t *testing.T) {
	userID := uuid.New()
	r, sessions := setup(t, &fakeAdmin{admins: map[uuid.UUID]bool{userID: true}}, true)
	token := signIn(t, sessions, userID)

	w := do(r, "/admin", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestGuardCachedAdminAnswerSkipsWait(t *testing.T) {
	userID := uuid.New()
	admin := &fakeAdmin{cached: map[uuid.UUID]bool{userID: true}, delay: time.Hour}
	r, sessions := setup(t, admin, true)
	token := signIn(t, sessions, userID)

	w := do(r, "/admin", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardSlowAdminCheckIsLoading(t *testing.T) {
	userID := uuid.New()
	r, sessions := setup(t, &fakeAdmin{admins: map[uuid.UUID]bool{userID: true}, delay: 300 * time.Millisecond}, true)
	token := signIn(t, sessions, userID)

	w := do(r, "/admin", token, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
