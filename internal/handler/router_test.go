package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/handler"
	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/infra/store"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

type stubBackend struct {
	profile    *domain.CustomerProfile
	updated    *domain.CustomerProfile
	areas      []domain.Area
	restaurant *domain.Restaurant
	restErr    error
}

func (s *stubBackend) GetCustomer(context.Context, string) (*domain.CustomerProfile, error) {
	if s.profile == nil {
		return nil, &domain.ErrNotFound{Resource: "customer"}
	}
	return s.profile, nil
}

func (s *stubBackend) UpdateCustomerPhone(context.Context, string, string) (*domain.CustomerProfile, error) {
	return s.updated, nil
}

func (s *stubBackend) GetAreas(context.Context) ([]domain.Area, error) {
	return s.areas, nil
}

func (s *stubBackend) GetRestaurant(context.Context, string) (*domain.Restaurant, error) {
	return s.restaurant, s.restErr
}

type stubGeocoder struct {
	address string
	err     error
}

func (g *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return g.address, g.err
}

func newTestServer(t *testing.T, backend *stubBackend, geo *stubGeocoder) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	ctrl := service.NewController(
		store.NewMemory(), backend, backend, backend,
		"Navrangpura", metrics, logger,
	)
	flow := service.NewLocationFlow(
		geo,
		domain.MapView{Center: domain.LatLng{Lat: 23.0225, Lng: 72.5714}, Zoom: 20},
		func(sel domain.LocationSelection) {},
		metrics, logger,
	)

	srv := httptest.NewServer(handler.NewRouter(ctrl, flow, backend, metrics, logger))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeState(t *testing.T, resp *http.Response) domain.SessionState {
	t.Helper()
	defer resp.Body.Close()
	var state domain.SessionState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &stubGeocoder{})

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestInitSession_EmptyStoreShowsLogin(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &stubGeocoder{})

	state := decodeState(t, postJSON(t, srv.URL+"/v1/session/init", nil))
	if state.Authenticated {
		t.Error("expected unauthenticated")
	}
	if state.Modal != domain.ModalLogin {
		t.Errorf("expected login modal, got %s", state.Modal)
	}
	if state.SelectedArea != "Navrangpura" {
		t.Errorf("expected default area, got %q", state.SelectedArea)
	}
}

func TestLogin_ValidationAndFlow(t *testing.T) {
	backend := &stubBackend{
		profile: &domain.CustomerProfile{ID: "cust-1"},
		areas:   []domain.Area{{ID: "area-1", AreaName: "Satellite"}},
	}
	srv := newTestServer(t, backend, &stubGeocoder{})

	resp := postJSON(t, srv.URL+"/v1/session/login", map[string]any{"authToken": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing token, got %d", resp.StatusCode)
	}

	state := decodeState(t, postJSON(t, srv.URL+"/v1/session/login", map[string]any{
		"authToken": "tok-1",
		"customer":  map[string]any{"id": "cust-1"},
	}))
	if !state.Authenticated {
		t.Fatal("expected authenticated after login")
	}
	if state.Modal != domain.ModalPhone {
		t.Errorf("expected phone modal for incomplete profile, got %s", state.Modal)
	}
}

func TestPhone_ResolvedWithUpdatedProfile(t *testing.T) {
	backend := &stubBackend{
		profile: &domain.CustomerProfile{ID: "cust-1"},
		areas:   []domain.Area{{ID: "area-1", AreaName: "Satellite"}},
	}
	srv := newTestServer(t, backend, &stubGeocoder{})

	decodeState(t, postJSON(t, srv.URL+"/v1/session/login", map[string]any{
		"authToken": "tok-1",
		"customer":  map[string]any{"id": "cust-1"},
	}))

	state := decodeState(t, postJSON(t, srv.URL+"/v1/session/phone", map[string]any{
		"customer": map[string]any{"id": "cust-1", "phone": "9999999999"},
	}))
	if state.Modal != domain.ModalLocation {
		t.Errorf("expected location modal after phone resolved, got %s", state.Modal)
	}
}

func TestLocation_RequiresAreaName(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &stubGeocoder{})

	resp := postJSON(t, srv.URL+"/v1/session/location", map[string]any{"areaName": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for blank area, got %d", resp.StatusCode)
	}
}

func TestMapClick_ReturnsSelection(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &stubGeocoder{address: "Navrangpura, Ahmedabad"})

	resp := postJSON(t, srv.URL+"/v1/location/click", map[string]any{"lat": 23.02, "lng": 72.57})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sel domain.LocationSelection
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		t.Fatal(err)
	}
	if sel.Address != "Navrangpura, Ahmedabad" || sel.Lat != 23.02 {
		t.Errorf("unexpected selection %+v", sel)
	}
}

func TestMapClick_GeocodeFailureStillAnswers200(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &stubGeocoder{err: errors.New("down")})

	resp := postJSON(t, srv.URL+"/v1/location/click", map[string]any{"lat": 23.02, "lng": 72.57})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sel domain.LocationSelection
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		t.Fatal(err)
	}
	if sel.Address != domain.GeocodeFailedAddress {
		t.Errorf("expected sentinel address, got %q", sel.Address)
	}
}

func TestMapView_PutAndGet(t *testing.T) {
	srv := newTestServer(t, &stubBackend{}, &stubGeocoder{})

	body, _ := json.Marshal(map[string]any{
		"center": map[string]float64{"lat": 23.03, "lng": 72.58},
		"zoom":   15,
	})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/location/view", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var put struct {
		View    domain.MapView `json:"view"`
		Changed bool           `json:"changed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&put); err != nil {
		t.Fatal(err)
	}
	if !put.Changed || put.View.Zoom != 15 {
		t.Errorf("expected moved view, got %+v", put)
	}

	getResp, err := http.Get(srv.URL + "/v1/location/view")
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	var got struct {
		View domain.MapView `json:"view"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.View.Center.Lat != 23.03 {
		t.Errorf("expected persisted view, got %+v", got.View)
	}
}

func TestGetRestaurant_SuccessEnvelope(t *testing.T) {
	backend := &stubBackend{restaurant: &domain.Restaurant{ID: "rest-7", Name: "Honest"}}
	srv := newTestServer(t, backend, &stubGeocoder{})

	resp, err := http.Get(srv.URL + "/v1/restaurants/rest-7")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env struct {
		Success bool               `json:"success"`
		Data    *domain.Restaurant `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Data == nil || env.Data.Name != "Honest" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestGetRestaurant_BackendMessagePassthrough(t *testing.T) {
	backend := &stubBackend{restErr: &domain.ErrBackend{Operation: "restaurant fetch", Message: "restaurant is closed"}}
	srv := newTestServer(t, backend, &stubGeocoder{})

	resp, err := http.Get(srv.URL + "/v1/restaurants/rest-7")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 for backend failure, got %d", resp.StatusCode)
	}
	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Success || env.Message != "restaurant is closed" {
		t.Errorf("expected backend message passed through, got %+v", env)
	}
}

func TestWatchSession_DeliversSnapshotsOverWebSocket(t *testing.T) {
	backend := &stubBackend{
		profile: &domain.CustomerProfile{ID: "cust-1"},
		areas:   []domain.Area{{ID: "area-1", AreaName: "Satellite"}},
	}
	srv := newTestServer(t, backend, &stubGeocoder{})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/session/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial watch: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives before any mutation.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial domain.SessionState
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}

	decodeState(t, postJSON(t, srv.URL+"/v1/session/login", map[string]any{
		"authToken": "tok-1",
		"customer":  map[string]any{"id": "cust-1"},
	}))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("no authenticated snapshot delivered")
		}
		conn.SetReadDeadline(deadline)
		var state domain.SessionState
		if err := conn.ReadJSON(&state); err != nil {
			t.Fatalf("read snapshot: %v", err)
		}
		if state.Authenticated {
			if state.Modal != domain.ModalPhone {
				t.Errorf("expected phone modal snapshot, got %s", state.Modal)
			}
			return
		}
	}
}
