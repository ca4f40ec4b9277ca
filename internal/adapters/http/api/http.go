// Package api exposes the assistant over HTTP: classification, skill
// dispatch, model versions, health and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/intentiq/internal/adapters/repository"
	"github.com/okian/intentiq/internal/app"
	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/internal/domain/skill"
	"github.com/okian/intentiq/pkg/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Engine runs classification cycles.
type Engine interface {
	Classify(ctx context.Context, text string) (app.Outcome, error)
	HandleText(ctx context.Context, text string) (app.Outcome, error)
}

// Skills dispatches directly to a named intent.
type Skills interface {
	Dispatch(ctx context.Context, intentName, payload string) (*skill.Result, error)
	Discovered() []string
	Has(intentName string) bool
}

// Versions lists saved artifact versions.
type Versions interface {
	Families() []model.Family
	ListVersions(ctx context.Context, family model.Family) ([]model.Version, error)
}

// Dependencies bundles what the handlers need.
type Dependencies struct {
	Engine   Engine
	Skills   Skills
	Versions Versions
	Logger   logger.Logger
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	predictHandler  *PredictHandler
	dispatchHandler *DispatchHandler
	versionsHandler *VersionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("api")
	return &Server{
		healthHandler:   NewHealthHandler(),
		predictHandler:  NewPredictHandler(deps.Engine, log),
		dispatchHandler: NewDispatchHandler(deps.Engine, deps.Skills, log),
		versionsHandler: NewVersionsHandler(deps.Versions, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/dispatch", MetricsMiddleware(s.dispatchHandler.HandleDispatch, "dispatch"))
	mux.HandleFunc("/skills", MetricsMiddleware(s.dispatchHandler.HandleSkills, "skills"))
	mux.HandleFunc("/versions", MetricsMiddleware(s.versionsHandler.HandleVersions, "versions"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads a single JSON document into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, app.ErrEmptyInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, skill.ErrDispatch):
		return http.StatusUnprocessableEntity, "dispatch_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}
