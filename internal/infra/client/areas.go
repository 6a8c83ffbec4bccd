package client

import (
	"context"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/infra/resilience"
	"github.com/zaikaapp/session-bfa-go/internal/port"
)

// AreaClient fetches the deliverable area list. The list changes rarely, so
// results go through a short-TTL cache.
type AreaClient struct {
	backendClient
	cache   port.Cache[[]domain.Area]
	metrics *observability.Metrics
}

// NewAreaClient creates a new AreaClient.
func NewAreaClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, cache port.Cache[[]domain.Area], metrics *observability.Metrics) *AreaClient {
	return &AreaClient{
		backendClient: backendClient{
			httpClient: httpClient,
			baseURL:    baseURL,
			cb:         cb,
			cfg:        cfg,
		},
		cache:   cache,
		metrics: metrics,
	}
}

// GetAreas returns the ordered area list.
func (c *AreaClient) GetAreas(ctx context.Context) ([]domain.Area, error) {
	ctx, span := tracer.Start(ctx, "AreaClient.GetAreas")
	defer span.End()

	if c.cache != nil {
		if areas, ok := c.cache.Get("areas"); ok {
			c.metrics.IncrCacheHit("areas")
			return areas, nil
		}
		c.metrics.IncrCacheMiss("areas")
	}

	areas, err := call[[]domain.Area](ctx, &c.backendClient,
		"area fetch", http.MethodGet, "/v1/areas", nil)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "areas", Err: err}
	}
	if c.cache != nil {
		c.cache.Set("areas", areas)
	}
	return areas, nil
}
