package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/middleware"
	"github.com/wms-platform/picking-orchestrator/pkg/resilience"
	"github.com/wms-platform/picking-orchestrator/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single downstream request
const DefaultTimeout = 10 * time.Second

// StatusError is returned when a downstream answers with an unexpected status
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// Config holds the settings shared by the downstream clients
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   *resilience.RetryConfig
	Breaker *resilience.CircuitBreaker
	// RequestsPerSecond caps outgoing requests, burst equal to the rate. 0 disables.
	RequestsPerSecond float64
}

// downstream performs JSON GETs through a circuit breaker and retry
type downstream struct {
	name       string
	baseURL    string
	httpClient *http.Client
	retry      *resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
	limiter    *rate.Limiter
	tracer     trace.Tracer
	logger     *logging.Logger
}

func newDownstream(name string, config Config, logger *logging.Logger) *downstream {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retry := resilience.DefaultRetryConfig()
	if config.Retry != nil {
		copied := *config.Retry
		retry = &copied
	}
	retry.Retryable = retryable

	breaker := config.Breaker
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig(name), logger, nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), max(int(config.RequestsPerSecond), 1))
	}

	return &downstream{
		name:       name,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		breaker:    breaker,
		limiter:    limiter,
		tracer:     otel.Tracer("clients"),
		logger:     logger.WithComponent(name + "-client"),
	}
}

// retryable skips an open circuit and any 4xx answer
func retryable(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// getJSON decodes the response into out. found is false on 404.
func (d *downstream) getJSON(ctx context.Context, url string, out any) (found bool, err error) {
	return tracing.Traced(ctx, d.tracer, d.name+".get", func(ctx context.Context) (bool, error) {
		return resilience.RetryWithResult(ctx, d.retry, func(ctx context.Context) (bool, error) {
			return resilience.Execute(ctx, d.breaker, func(ctx context.Context) (bool, error) {
				return d.do(ctx, url, out)
			})
		})
	}, attribute.String("peer.service", d.name), attribute.String("http.url", url))
}

func (d *downstream) do(ctx context.Context, url string, out any) (bool, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if correlationID, ok := ctx.Value(logging.CorrelationIDKey).(string); ok && correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}
	tracing.InjectTraceContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.WithError(err).Warn("Downstream request failed", "url", url)
		return false, fmt.Errorf("failed to call %s: %w", d.name, err)
	}
	defer resp.Body.Close()

	d.logger.Debug("Downstream request completed",
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, &StatusError{Service: d.name, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode %s response: %w", d.name, err)
	}
	return true, nil
}
