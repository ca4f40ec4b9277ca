package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/intentiq/pkg/logger"
)

// DispatchHandler runs skills, either for a named intent or for whatever
// intent the text classifies as.
type DispatchHandler struct {
	engine Engine
	skills Skills
	log    logger.Logger
}

// NewDispatchHandler creates a new dispatch handler.
func NewDispatchHandler(engine Engine, skills Skills, log logger.Logger) *DispatchHandler {
	return &DispatchHandler{engine: engine, skills: skills, log: log}
}

type dispatchRequest struct {
	Intent string `json:"intent,omitempty"`
	Text   string `json:"text"`
}

type skillsResponse struct {
	Intents []string `json:"intents"`
}

// HandleDispatch handles POST /dispatch requests. With an intent the skill
// runs directly; without one the text goes through a full cycle. A named
// intent must already be registered so clients cannot add placeholders.
func (h *DispatchHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req dispatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if name := strings.TrimSpace(req.Intent); name != "" {
		if !h.skills.Has(name) {
			writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: no skill for intent %q", ErrNotFound, name))
			return
		}
		res, err := h.skills.Dispatch(r.Context(), name, req.Text)
		if err != nil {
			status, code := statusFor(err)
			writeError(w, status, code, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	if err := (textRequest{Text: req.Text}).validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := h.engine.HandleText(r.Context(), req.Text)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error(r.Context(), "dispatch cycle failed", logger.Error(err))
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSkills handles GET /skills requests.
func (h *DispatchHandler) HandleSkills(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, skillsResponse{Intents: h.skills.Discovered()})
}
