package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

// ============================================================
// Map location picker routes
// ============================================================

type mapClickRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type mapViewRequest struct {
	Center domain.LatLng `json:"center"`
	Zoom   int           `json:"zoom"`
}

type mapViewResponse struct {
	View    domain.MapView `json:"view"`
	Marker  *domain.LatLng `json:"marker,omitempty"`
	Changed bool           `json:"changed,omitempty"`
}

// mapClickHandler resolves one click. It always answers 200 with a complete
// selection; geocoding failures surface only through the sentinel address.
func mapClickHandler(flow *service.LocationFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mapClickRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sel := flow.OnMapClick(r.Context(), req.Lat, req.Lng)
		logger.Debug("map click resolved",
			zap.Float64("lat", sel.Lat),
			zap.Float64("lng", sel.Lng),
			zap.String("address", sel.Address),
		)
		writeJSON(w, http.StatusOK, sel)
	}
}

func mapViewHandler(flow *service.LocationFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mapViewResponse{View: flow.View(), Marker: flow.Marker()})
	}
}

func mapSetViewHandler(flow *service.LocationFlow, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mapViewRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		changed := flow.SetView(req.Center, req.Zoom)
		if changed {
			logger.Debug("map view moved",
				zap.Float64("lat", req.Center.Lat),
				zap.Float64("lng", req.Center.Lng),
				zap.Int("zoom", req.Zoom),
			)
		}
		writeJSON(w, http.StatusOK, mapViewResponse{View: flow.View(), Marker: flow.Marker(), Changed: changed})
	}
}
