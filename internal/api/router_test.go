package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/prop-projector/internal/api/handlers"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/pkg/config"
)

type stubProjector struct{}

func (stubProjector) Project(_ context.Context, req models.ProjectionRequest, h models.HeuristicProjection) models.ProjectionResult {
	return models.ProjectionResult{ProjectedValue: h.ProjectedValue, Source: models.SourceHeuristic}
}

func newTestRouter(t *testing.T, burst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"})
	require.NoError(t, reg.Register(counter))
	counter.Inc()

	health := handlers.NewHealthHandler(nil)
	router := gin.New()
	SetupOperational(router, health, reg)
	SetupRoutes(router.Group("/api/v1"), Handlers{
		Projection: handlers.NewProjectionHandler(stubProjector{}),
		Models:     handlers.NewModelHandler(nil),
		Health:     health,
	}, &config.Config{ProjectRateLimit: 0.001, ProjectRateBurst: burst})
	return router
}

func TestProjectionRouteIsRateLimited(t *testing.T) {
	router := newTestRouter(t, 2)
	body := `{"player_id":"p1","stat_type":"points","opponent":"BOS","heuristic":{"projected_value":12}}`

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projections", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestOperationalRoutes(t *testing.T) {
	router := newTestRouter(t, 1)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "router_test_total 1")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
