// Package client provides HTTP clients for the ordering backend. Every
// endpoint answers with the same envelope: {success, data, message}; a
// success=false envelope is surfaced as *domain.ErrBackend, never as a
// decoded zero value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// envelope is the backend's uniform response wrapper.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// backendClient carries the shared plumbing for all ordering-backend calls.
type backendClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// call performs one enveloped request with retry and circuit breaking and
// decodes data into out.
func call[T any](ctx context.Context, c *backendClient, operation, method, path string, body any) (T, error) {
	var out T

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var reqBody *bytes.Reader
			if body != nil {
				raw, err := json.Marshal(body)
				if err != nil {
					return err
				}
				reqBody = bytes.NewReader(raw)
			} else {
				reqBody = bytes.NewReader(nil)
			}

			url := c.baseURL + path
			req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return &domain.ErrNotFound{Resource: operation, ID: path}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s returned status %d", operation, resp.StatusCode)
			}

			var env envelope[T]
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				return fmt.Errorf("%s: decode envelope: %w", operation, err)
			}
			if !env.Success {
				return &domain.ErrBackend{Operation: operation, Message: env.Message}
			}
			out = env.Data
			return nil
		})
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
