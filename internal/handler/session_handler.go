package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

// ============================================================
// Session & onboarding routes
// ============================================================

type authRequest struct {
	AuthToken string                  `json:"authToken"`
	Customer  *domain.CustomerProfile `json:"customer"`
}

type signupOpenRequest struct {
	Phone string `json:"phone"`
}

type phoneRequest struct {
	// Phone, when set, is pushed to the backend before resolving the step.
	Phone string `json:"phone"`
	// Customer, when set, is the already-updated profile (popup did the
	// update itself). When both are empty the popup was dismissed.
	Customer *domain.CustomerProfile `json:"customer"`
}

type locationRequest struct {
	AreaName string `json:"areaName"`
}

func getSessionHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func initSessionHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.Initialize(r.Context())
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func loginHandler(ctrl *service.Controller, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.AuthToken) == "" || req.Customer == nil || strings.TrimSpace(req.Customer.ID) == "" {
			writeError(w, http.StatusBadRequest, "authToken and customer.id are required")
			return
		}

		ctrl.OnLoginSuccess(r.Context(), req.AuthToken, req.Customer)
		logger.Info("login success", zap.String("customer_id", req.Customer.ID))
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func signupHandler(ctrl *service.Controller, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.AuthToken) == "" || req.Customer == nil || strings.TrimSpace(req.Customer.ID) == "" {
			writeError(w, http.StatusBadRequest, "authToken and customer.id are required")
			return
		}

		ctrl.OnSignupSuccess(r.Context(), req.AuthToken, req.Customer)
		logger.Info("signup success", zap.String("customer_id", req.Customer.ID))
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func signupOpenHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupOpenRequest
		_ = decodeBody(r, &req) // empty body means no carried phone
		ctrl.ShowSignup(req.Phone)
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func signupCancelHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.CancelSignup()
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func logoutHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.OnLogout(r.Context())
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func phoneHandler(ctrl *service.Controller, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req phoneRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if strings.TrimSpace(req.Phone) != "" {
			if err := ctrl.UpdatePhone(r.Context(), req.Phone); err != nil {
				logger.Warn("phone update rejected", zap.Error(err))
				writeError(w, statusForError(err), err.Error())
				return
			}
		} else {
			// Popup closed, with or without an updated profile in hand.
			ctrl.OnPhoneResolved(r.Context(), req.Customer)
		}
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func locationResolvedHandler(ctrl *service.Controller, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.AreaName) == "" {
			writeError(w, http.StatusBadRequest, "areaName is required")
			return
		}

		ctrl.OnLocationResolved(r.Context(), req.AreaName)
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func locationOpenHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.OpenLocation(r.Context())
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func profileOpenHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.OpenProfile()
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func profileCloseHandler(ctrl *service.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl.CloseProfile()
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}
