package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

type mockGeocoder struct {
	mu      sync.Mutex
	address string
	err     error
	calls   []domain.LatLng
}

func (g *mockGeocoder) ReverseGeocode(_ context.Context, lat, lng float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, domain.LatLng{Lat: lat, Lng: lng})
	return g.address, g.err
}

func newTestFlow(geo *mockGeocoder, onSelect func(domain.LocationSelection)) *service.LocationFlow {
	initial := domain.MapView{Center: domain.LatLng{Lat: 23.0225, Lng: 72.5714}, Zoom: 20}
	return service.NewLocationFlow(geo, initial, onSelect, observability.NewMetrics(), zap.NewNop())
}

func TestOnMapClick_ResolvesAddress(t *testing.T) {
	geo := &mockGeocoder{address: "Navrangpura, Ahmedabad"}
	var got domain.LocationSelection
	flow := newTestFlow(geo, func(sel domain.LocationSelection) { got = sel })

	sel := flow.OnMapClick(context.Background(), 23.02, 72.57)

	if sel.Address != "Navrangpura, Ahmedabad" {
		t.Errorf("expected resolved address, got %q", sel.Address)
	}
	if sel.Lat != 23.02 || sel.Lng != 72.57 {
		t.Errorf("expected click coordinates echoed, got (%v, %v)", sel.Lat, sel.Lng)
	}
	if got != sel {
		t.Errorf("expected onSelect to observe the same selection, got %+v", got)
	}
	marker := flow.Marker()
	if marker == nil || marker.Lat != 23.02 || marker.Lng != 72.57 {
		t.Errorf("expected marker at click position, got %+v", marker)
	}
}

func TestOnMapClick_GeocodeFailureYieldsSentinel(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("timeout")}
	flow := newTestFlow(geo, nil)

	sel := flow.OnMapClick(context.Background(), 23.02, 72.57)

	if sel.Address != domain.GeocodeFailedAddress {
		t.Errorf("expected failure sentinel, got %q", sel.Address)
	}
	// The marker still moves: the click is honored even when the address is not.
	if m := flow.Marker(); m == nil || m.Lat != 23.02 {
		t.Errorf("expected marker despite geocode failure, got %+v", m)
	}
}

func TestOnMapClick_NewClickReplacesMarker(t *testing.T) {
	geo := &mockGeocoder{address: "somewhere"}
	flow := newTestFlow(geo, nil)

	flow.OnMapClick(context.Background(), 23.02, 72.57)
	flow.OnMapClick(context.Background(), 23.05, 72.60)

	m := flow.Marker()
	if m == nil || m.Lat != 23.05 || m.Lng != 72.60 {
		t.Errorf("expected marker at latest click, got %+v", m)
	}
	if len(geo.calls) != 2 {
		t.Errorf("expected two geocode calls, got %d", len(geo.calls))
	}
}

func TestMarker_NilBeforeFirstClick(t *testing.T) {
	flow := newTestFlow(&mockGeocoder{}, nil)
	if m := flow.Marker(); m != nil {
		t.Errorf("expected no marker before any click, got %+v", m)
	}
}

func TestSetView_UnchangedIsNoOp(t *testing.T) {
	flow := newTestFlow(&mockGeocoder{}, nil)
	initial := flow.View()

	if changed := flow.SetView(initial.Center, initial.Zoom); changed {
		t.Error("expected applying the current view to report no change")
	}
	if changed := flow.SetView(domain.LatLng{Lat: 23.03, Lng: 72.58}, 15); !changed {
		t.Error("expected a different view to report a change")
	}
	v := flow.View()
	if v.Center.Lat != 23.03 || v.Zoom != 15 {
		t.Errorf("expected updated view, got %+v", v)
	}
}
