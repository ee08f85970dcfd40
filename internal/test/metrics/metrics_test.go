package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vision-board-backend/internal/metrics"
)

func TestMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/dreams/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/dreams/1", "/dreams/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `dreamcanvas_http_requests_total{method="GET",path="/dreams/:id",status="200"} 2`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.False(t, strings.Contains(body, `path="/metrics"`))
}

func TestRecordStep(t *testing.T) {
	m := metrics.New()

	m.RecordStep("story", metrics.OutcomeOK)
	m.RecordStep("story", metrics.OutcomeOK)
	m.RecordStep("story", metrics.OutcomeFailed)
	m.RecordPipeline(metrics.OutcomeOK, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepCounter("story", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepCounter("story", metrics.OutcomeFailed)))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordStep("story", metrics.OutcomeOK)
		m.RecordPipeline(metrics.OutcomeFailed, time.Second)
	})
}
