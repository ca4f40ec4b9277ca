package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/intentiq/pkg/logger"
)

// PredictHandler classifies text without running a skill.
type PredictHandler struct {
	engine Engine
	log    logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(engine Engine, log logger.Logger) *PredictHandler {
	return &PredictHandler{engine: engine, log: log}
}

type textRequest struct {
	Text string `json:"text"`
}

func (t textRequest) validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("%w: missing text", ErrBadRequest)
	}
	return nil
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req textRequest
	err := decodeBody(r, &req)
	if err == nil {
		err = req.validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	out, err := h.engine.Classify(r.Context(), req.Text)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error(r.Context(), "classification failed", logger.Error(err))
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
