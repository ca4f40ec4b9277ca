package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/pkg/logger"
)

// VersionsHandler reports saved artifact versions per family.
type VersionsHandler struct {
	store Versions
	log   logger.Logger
}

// NewVersionsHandler creates a new versions handler.
func NewVersionsHandler(store Versions, log logger.Logger) *VersionsHandler {
	return &VersionsHandler{store: store, log: log}
}

type familyVersions struct {
	Family   model.Family    `json:"family"`
	Versions []model.Version `json:"versions"`
	Latest   model.Version   `json:"latest,omitempty"`
}

// HandleVersions handles GET /versions?family= requests. Without a family
// every configured family is listed.
func (h *VersionsHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	families := h.store.Families()
	if f := strings.TrimSpace(r.URL.Query().Get("family")); f != "" {
		families = []model.Family{model.Family(f)}
	}

	out := make([]familyVersions, 0, len(families))
	for _, f := range families {
		versions, err := h.store.ListVersions(r.Context(), f)
		if err != nil {
			status, code := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.log.Error(r.Context(), "listing versions failed", logger.String("family", string(f)), logger.Error(err))
			}
			writeError(w, status, code, fmt.Errorf("family %s: %w", f, err))
			return
		}
		fv := familyVersions{Family: f, Versions: versions}
		if fv.Versions == nil {
			fv.Versions = []model.Version{}
		}
		if n := len(versions); n > 0 {
			fv.Latest = versions[n-1]
		}
		out = append(out, fv)
	}
	writeJSON(w, http.StatusOK, out)
}
