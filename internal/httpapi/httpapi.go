// Package httpapi exposes the service over REST. Handlers stay thin:
// decode, call the service, encode. All policy lives below this layer.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cafepos/backend/internal/service"
	"cafepos/backend/internal/store"
)

type Server struct {
	service *service.Service
	auth    *AuthManager
	logger  zerolog.Logger
}

func NewServer(svc *service.Service, auth *AuthManager, logger zerolog.Logger) *Server {
	return &Server{service: svc, auth: auth, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Login is the only brute-forceable surface; rate limit it by IP.
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require)

			r.Get("/auth/profile", s.handleProfile)
			r.Post("/auth/change-password", s.handleChangePassword)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Get("/categories/{id}", s.handleGetCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/products", s.handleListProducts)
			r.Post("/products", s.handleCreateProduct)
			r.Get("/products/{id}", s.handleGetProduct)
			r.Put("/products/{id}", s.handleUpdateProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)

			r.Get("/inventory/logs", s.handleInventoryLogs)
			r.Get("/stock/alerts", s.handleStockAlerts)
			r.Put("/stock/alerts", s.handleAcknowledgeStockAlerts)
			r.Post("/notifications/{key}/read", s.handleMarkNotificationRead)

			r.Get("/suppliers", s.handleListSuppliers)
			r.Post("/suppliers", s.handleCreateSupplier)
			r.Get("/suppliers/logs", s.handleSupplierLogs)
			r.Get("/suppliers/{id}", s.handleGetSupplier)
			r.Put("/suppliers/{id}", s.handleUpdateSupplier)
			r.Delete("/suppliers/{id}", s.handleDeleteSupplier)
			r.Get("/suppliers/{id}/logs", s.handleSupplierLogs)
			r.Post("/suppliers/{id}/logs", s.handleAddSupplierLog)
			r.Post("/suppliers/{id}/deliveries", s.handleRecordDelivery)

			r.Post("/orders", s.handleCreateOrder)
			r.Get("/orders/{transactionId}", s.handleGetOrder)

			r.Post("/voids", s.handleApproveVoid)
			r.Get("/voids", s.handleVoidLogs)

			r.Get("/users", s.handleListUsers)
			r.Delete("/users/{id}", s.handleDeleteUser)

			r.Post("/admin/reset", s.handleReset)
			r.Post("/admin/import-users", s.handleImportUsers)

			r.Get("/analytics/admin", s.handleAdminAnalytics)
			r.Get("/analytics/cashier", s.handleCashierAnalytics)
			r.Get("/analytics/cashier/{id}", s.handleCashierAnalytics)
		})
	})

	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := s.logger.With().Str("requestId", id).Logger().WithContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("response encode failed")
		}
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Anything
// unclassified is an internal error and logged with its cause; the client
// only sees a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var body errorBody

	switch {
	case errors.Is(err, store.ErrValidation):
		status, body = http.StatusBadRequest, errorBody{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, service.ErrInvalidCredentials):
		status, body = http.StatusUnauthorized, errorBody{Code: "AUTHORIZATION", Message: "invalid credentials"}
	case errors.Is(err, service.ErrForbidden):
		status, body = http.StatusForbidden, errorBody{Code: "AUTHORIZATION", Message: err.Error()}
	case errors.Is(err, store.ErrNotFound):
		status, body = http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "resource not found"}
	case errors.Is(err, store.ErrConflict):
		status, body = http.StatusConflict, errorBody{Code: "CONFLICT", Message: err.Error()}
	default:
		status, body = http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal error"}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	s.writeJSON(w, status, errorEnvelope{Error: body})
}

func (s *Server) decode(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed body: %v", store.ErrValidation, err)
	}
	return nil
}
