package audit

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/audit"
)

type fakeLogs struct {
	entries   []*model.IntegrationLog
	eventType string
	limit     int
}

func (f *fakeLogs) Create(_ context.Context, e *model.IntegrationLog) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLogs) List(_ context.Context, eventType string, limit int) ([]*model.IntegrationLog, error) {
	f.eventType, f.limit = eventType, limit
	return f.entries, nil
}

func (f *fakeLogs) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func setup(repo *fakeLogs) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("")
	NewHandler(audit.NewService(repo, nil)).RegisterRoutes(handler.Routes{Public: g, Catalog: g, Protected: g, Admin: g})
	return r
}

func TestListLogsPassesFilters(t *testing.T) {
	repo := &fakeLogs{}
	r := setup(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/integration-logs?limit=20&event_type=checkout.completed", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "checkout.completed", repo.eventType)
	assert.Equal(t, 20, repo.limit)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/integration-logs?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportLogsWritesCSV(t *testing.T) {
	repo := &fakeLogs{entries: []*model.IntegrationLog{{
		ID:        uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		EventType: "checkout.completed",
		Source:    "mock_payment",
		Payload:   model.JSONMap{"course_id": "c1"},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	r := setup(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/integration-logs/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename=integration_logs_"))

	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "event_type", "source", "created_at", "payload"}, rows[0])
	assert.Equal(t, []string{
		"11111111-2222-3333-4444-555555555555",
		"checkout.completed",
		"mock_payment",
		"2024-01-02T03:04:05Z",
		`{"course_id":"c1"}`,
	}, rows[1])
}
