package waitingroom

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-portal/internal/handler"
)

func setup() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("")
	NewHandler(nil, nil).RegisterRoutes(handler.Routes{Public: g, Catalog: g, Protected: g, Admin: g})
	return r
}

func TestRejectsMalformedInput(t *testing.T) {
	r := setup()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"board day", http.MethodGet, "/waiting-room?day=tomorrow", ""},
		{"billing from", http.MethodGet, "/billing?from=2024-13-01", ""},
		{"billing to", http.MethodGet, "/billing?from=2024-01-01&to=01-02-2024", ""},
		{"drop body", http.MethodPost, "/waiting-room/drop", "{"},
		{"drop target", http.MethodPost, "/waiting-room/drop", `{"payload":{"status":"waiting"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
