package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/resilience"
)

// RestaurantClient fetches restaurant detail for the proxy route.
type RestaurantClient struct {
	backendClient
}

// NewRestaurantClient creates a new RestaurantClient.
func NewRestaurantClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *RestaurantClient {
	return &RestaurantClient{backendClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}}
}

// GetRestaurant fetches a restaurant by id.
func (c *RestaurantClient) GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	ctx, span := tracer.Start(ctx, "RestaurantClient.GetRestaurant")
	defer span.End()
	span.SetAttributes(attribute.String("restaurant.id", restaurantID))

	r, err := call[*domain.Restaurant](ctx, &c.backendClient,
		"restaurant fetch", http.MethodGet, fmt.Sprintf("/v1/restaurants/%s", restaurantID), nil)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "restaurant", Err: err}
	}
	return r, nil
}
