package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/port"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

// NewRouter creates the HTTP router with all routes and middleware.
// The routes mirror the session/onboarding surface the web client consumes.
func NewRouter(
	ctrl *service.Controller,
	flow *service.LocationFlow,
	restaurants port.RestaurantFetcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Session & onboarding state machine
		r.Route("/session", func(r chi.Router) {
			r.Get("/", getSessionHandler(ctrl))
			r.Get("/watch", watchSessionHandler(ctrl, metrics, logger))

			r.Post("/init", initSessionHandler(ctrl))
			r.Post("/login", loginHandler(ctrl, logger))
			r.Post("/signup", signupHandler(ctrl, logger))
			r.Post("/signup/open", signupOpenHandler(ctrl))
			r.Post("/signup/cancel", signupCancelHandler(ctrl))
			r.Post("/logout", logoutHandler(ctrl))

			r.Post("/phone", phoneHandler(ctrl, logger))
			r.Post("/location", locationResolvedHandler(ctrl, logger))
			r.Post("/location/open", locationOpenHandler(ctrl))

			r.Post("/profile/open", profileOpenHandler(ctrl))
			r.Post("/profile/close", profileCloseHandler(ctrl))
		})

		// Map location picker
		r.Post("/location/click", mapClickHandler(flow, logger))
		r.Get("/location/view", mapViewHandler(flow))
		r.Put("/location/view", mapSetViewHandler(flow, logger))

		// Restaurant detail proxy
		r.Get("/restaurants/{restaurantId}", getRestaurantHandler(restaurants, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
