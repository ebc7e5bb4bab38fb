package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/wms-platform/picking-orchestrator/pkg/errors"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	router := gin.New()
	Setup(router, DefaultConfig("picking-orchestrator", logging.NewNop()))
	return router
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	router := newRouter()
	var seenCorrelation any
	router.GET("/ping", func(c *gin.Context) {
		seenCorrelation = c.Request.Context().Value(logging.CorrelationIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "corr-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-1", w.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "corr-1", seenCorrelation)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	router := newRouter()
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, pkgerrors.CodeInternalError, body.Code)
}

func TestNoRouteAndNoMethod(t *testing.T) {
	router := newRouter()
	router.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ROUTE_NOT_FOUND")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestErrorResponder(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", pkgerrors.ErrInvalidState("wave is completed"), http.StatusConflict, pkgerrors.CodeInvalidState},
		{"plain error", errors.New("disk full"), http.StatusInternalServerError, pkgerrors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter()
			router.GET("/err", func(c *gin.Context) {
				NewErrorResponder(c, logging.NewNop()).RespondWithError(tt.err)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body APIErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.RequestID)
			assert.Equal(t, "/err", body.Path)
		})
	}
}

type createWaveBody struct {
	OrderIDs []string `json:"orderIds" binding:"required,min=1,dive,identifier"`
	Strategy string   `json:"strategy" binding:"required,strategy"`
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantErr    bool
		wantFields []string
	}{
		{"valid", `{"orderIds":["ORD-1"],"strategy":"batch"}`, false, nil},
		{"unknown strategy", `{"orderIds":["ORD-1"],"strategy":"fastest"}`, true, []string{"strategy"}},
		{"missing orders", `{"strategy":"zone"}`, true, []string{"orderIds"}},
		{"malformed", `{`, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter()
			var appErr *pkgerrors.AppError
			router.POST("/waves", func(c *gin.Context) {
				var body createWaveBody
				appErr = BindAndValidate(c, &body)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/waves", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(httptest.NewRecorder(), req)

			if !tt.wantErr {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			for _, f := range tt.wantFields {
				assert.Contains(t, appErr.Details, f)
			}
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	router := gin.New()
	ready := false
	router.GET("/ready", ReadinessCheck("picking-orchestrator", func(context.Context) error {
		if !ready {
			return errors.New("mongo unreachable")
		}
		return nil
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("picking-orchestrator"))
	router := gin.New()
	router.Use(MetricsMiddleware(m))
	router.GET("/api/v1/waves/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", MetricsEndpoint(m))
	router.GET("/health", HealthCheck("picking-orchestrator"))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/waves/W1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/v1/waves/:id"`)
	assert.NotContains(t, w.Body.String(), `path="/health"`)
}
