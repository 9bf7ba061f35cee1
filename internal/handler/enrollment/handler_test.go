package enrollment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/service/checkout"
)

type fakeGateway struct {
	courseID uuid.UUID
	user     *auth.Session
	result   *checkout.Result
	err      error
}

func (f *fakeGateway) InitiateCheckout(_ context.Context, courseID uuid.UUID, user *auth.Session) (*checkout.Result, error) {
	f.courseID, f.user = courseID, user
	return f.result, f.err
}

func setup(gw checkout.Gateway, user *auth.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextAuthState, auth.State{User: user})
		c.Next()
	})
	g := r.Group("")
	NewHandler(nil, nil, gw).RegisterRoutes(handler.Routes{Public: g, Catalog: g, Protected: g, Admin: g})
	return r
}

func TestCheckoutPassesCourseAndUser(t *testing.T) {
	user := &auth.Session{ID: "s1", UserID: uuid.New()}
	courseID := uuid.New()
	gw := &fakeGateway{result: &checkout.Result{Success: false, RedirectURL: "/catalog?error=true"}}
	r := setup(gw, user)

	w := httptest.NewRecorder()
	body := `{"course_id":"` + courseID.String() + `"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, courseID, gw.courseID)
	assert.Same(t, user, gw.user)

	var resp struct {
		Status string          `json:"status"`
		Data   checkout.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.False(t, resp.Data.Success)
	assert.Equal(t, "/catalog?error=true", resp.Data.RedirectURL)
}

func TestCheckoutCancelledRequest(t *testing.T) {
	gw := &fakeGateway{err: context.Canceled}
	r := setup(gw, &auth.Session{UserID: uuid.New()})

	w := httptest.NewRecorder()
	body := `{"course_id":"` + uuid.NewString() + `"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCompleteLessonRejectsBadID(t *testing.T) {
	r := setup(&fakeGateway{}, &auth.Session{UserID: uuid.New()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/me/lessons/abc/complete", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
