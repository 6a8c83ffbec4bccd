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

// CustomerClient talks to the ordering backend's customer endpoints.
type CustomerClient struct {
	backendClient
}

// NewCustomerClient creates a new CustomerClient.
func NewCustomerClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CustomerClient {
	return &CustomerClient{backendClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}}
}

// GetCustomer fetches a customer by id.
func (c *CustomerClient) GetCustomer(ctx context.Context, customerID string) (*domain.CustomerProfile, error) {
	ctx, span := tracer.Start(ctx, "CustomerClient.GetCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	profile, err := call[*domain.CustomerProfile](ctx, &c.backendClient,
		"customer fetch", http.MethodGet, fmt.Sprintf("/v1/customers/%s", customerID), nil)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "customer", Err: err}
	}
	return profile, nil
}

// UpdateCustomerPhone updates the customer's phone number and returns the
// refreshed profile from the backend's envelope.
func (c *CustomerClient) UpdateCustomerPhone(ctx context.Context, customerID, phone string) (*domain.CustomerProfile, error) {
	ctx, span := tracer.Start(ctx, "CustomerClient.UpdateCustomerPhone")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	body := map[string]string{"phone": phone}
	profile, err := call[*domain.CustomerProfile](ctx, &c.backendClient,
		"customer phone update", http.MethodPut, fmt.Sprintf("/v1/customers/%s/phone", customerID), body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "customer", Err: err}
	}
	return profile, nil
}
