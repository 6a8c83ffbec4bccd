package service

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/port"
)

// LocationFlow turns a map click into a persisted-ready address: the click
// coordinates become the marker immediately, reverse geocoding runs after,
// and the selection always resolves — on provider failure the address is
// the sentinel string, never a hang.
//
// Exactly one marker exists at a time; a new click replaces it.
type LocationFlow struct {
	geocoder port.Geocoder
	logger   *zap.Logger
	metrics  *observability.Metrics

	// onSelect, when set, observes every resolved selection.
	onSelect func(domain.LocationSelection)

	mu     sync.Mutex
	marker *domain.LatLng
	view   domain.MapView
}

// NewLocationFlow creates a location flow with the given initial map view.
func NewLocationFlow(geocoder port.Geocoder, initialView domain.MapView, onSelect func(domain.LocationSelection), metrics *observability.Metrics, logger *zap.Logger) *LocationFlow {
	return &LocationFlow{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
		onSelect: onSelect,
		view:     initialView,
	}
}

// OnMapClick adopts (lat, lng) as the marker position synchronously, then
// resolves the address. It always returns a complete selection.
func (f *LocationFlow) OnMapClick(ctx context.Context, lat, lng float64) domain.LocationSelection {
	ctx, span := tracer.Start(ctx, "LocationFlow.OnMapClick")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lng", lng),
	)

	f.mu.Lock()
	f.marker = &domain.LatLng{Lat: lat, Lng: lng}
	f.mu.Unlock()

	address, err := f.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		f.metrics.IncrGeocodeFailure()
		f.logger.Warn("map click: reverse geocode failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		address = domain.GeocodeFailedAddress
	}

	sel := domain.LocationSelection{Lat: lat, Lng: lng, Address: address}
	if f.onSelect != nil {
		f.onSelect(sel)
	}
	return sel
}

// SetView declaratively re-centers the map. Applying an unchanged view is a
// no-op; the return reports whether the view actually moved.
func (f *LocationFlow) SetView(center domain.LatLng, zoom int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := domain.MapView{Center: center, Zoom: zoom}
	if f.view == next {
		return false
	}
	f.view = next
	return true
}

// View returns the current declarative map view.
func (f *LocationFlow) View() domain.MapView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

// Marker returns the current marker position, or nil before any click.
func (f *LocationFlow) Marker() *domain.LatLng {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marker == nil {
		return nil
	}
	m := *f.marker
	return &m
}
