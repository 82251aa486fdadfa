// Package api exposes the booking engine over HTTP: публичные ручки для
// записи по телефону и административные — для расписания и журнала.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"zapis/internal/booking"
	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/metrics"

	"github.com/rs/zerolog"
)

type HTTPServer struct {
	cfg    config.APIConfig
	engine *booking.Engine
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, engine *booking.Engine, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, engine: engine, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/verification/send", srv.handleSendCode)
	mux.HandleFunc("/api/v1/bookings", srv.handleCreateBooking)

	mux.HandleFunc("/api/v1/admin/schedule", srv.handleSchedule)
	mux.HandleFunc("/api/v1/admin/exceptions", srv.handleExceptionList)
	mux.HandleFunc("/api/v1/admin/exceptions/range", srv.handleExceptionRange)
	mux.HandleFunc("/api/v1/admin/exceptions/", srv.handleException)
	mux.HandleFunc("/api/v1/admin/appointments", srv.handleAppointments)
	mux.HandleFunc("/api/v1/admin/appointments/", srv.handleAppointmentStatus)
	mux.HandleFunc("/api/v1/admin/services", srv.handleServices)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler возвращает полный HTTP-стек сервера (для httptest).
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeEngineError переводит доменные ошибки в HTTP-статусы.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotNoLongerAvailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrInvalidOrExpiredCode):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, booking.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, booking.ErrUnreachableChannel):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, booking.ErrUnknownService):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrPastSlot),
		errors.Is(err, booking.ErrDateTooFar),
		errors.Is(err, booking.ErrSlotNotOffered),
		errors.Is(err, booking.ErrProtocolState):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
