package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/port"
)

// restaurantEnvelope mirrors the backend envelope so the detail page can
// render the backend's own message inline on failure.
type restaurantEnvelope struct {
	Success bool               `json:"success"`
	Data    *domain.Restaurant `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
}

func getRestaurantHandler(restaurants port.RestaurantFetcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID := chi.URLParam(r, "restaurantId")
		if restaurantID == "" {
			writeJSON(w, http.StatusBadRequest, restaurantEnvelope{Message: "Restaurant ID is required"})
			return
		}

		rest, err := restaurants.GetRestaurant(r.Context(), restaurantID)
		if err != nil {
			logger.Warn("restaurant fetch failed",
				zap.String("restaurant_id", restaurantID),
				zap.Error(err),
			)
			msg := "Failed to load restaurant details"
			var backend *domain.ErrBackend
			if errors.As(err, &backend) {
				msg = backend.Message
			}
			writeJSON(w, statusForError(err), restaurantEnvelope{Message: msg})
			return
		}

		writeJSON(w, http.StatusOK, restaurantEnvelope{Success: true, Data: rest})
	}
}
