// Package geocode adapts the Nominatim reverse-geocoding API. The provider
// is best effort: no key, aggressive rate limits, occasional empty results.
// Callers are expected to substitute a sentinel address on failure.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("geocode")

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim reverse-geocodes coordinates via the jsonv2 reverse endpoint.
// A bulkhead caps concurrent requests so map-click bursts don't hammer the
// shared public instance.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(httpClient *http.Client, baseURL string, bulkhead *resilience.Bulkhead, logger *zap.Logger) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Nominatim{
		httpClient: httpClient,
		baseURL:    baseURL,
		bulkhead:   bulkhead,
		logger:     logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode resolves (lat, lng) to the provider's display name.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	ctx, span := tracer.Start(ctx, "Nominatim.ReverseGeocode")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lng", lng),
	)

	if err := n.bulkhead.Acquire(ctx); err != nil {
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng, Err: err}
	}
	defer n.bulkhead.Release()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/reverse?%s", n.baseURL, q.Encode()), nil)
	if err != nil {
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng, Err: err}
	}
	// Nominatim usage policy requires an identifying UA.
	req.Header.Set("User-Agent", "zaika-session-bfa/1.0")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("geocode: request failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng,
			Err: fmt.Errorf("provider returned status %d", resp.StatusCode)}
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng, Err: err}
	}
	// The provider signals "nothing at these coordinates" with an error
	// field or an empty display name inside a 200 response.
	if body.Error != "" {
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng, Err: fmt.Errorf("provider: %s", body.Error)}
	}
	if body.DisplayName == "" {
		return "", &domain.ErrGeocode{Lat: lat, Lng: lng, Err: fmt.Errorf("no address at coordinates")}
	}
	return body.DisplayName, nil
}
