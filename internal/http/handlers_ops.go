package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/contenttype"
	apperrors "github.com/target/pressqueue/internal/errors"
)

type opsHandlers struct {
	cycles   core.CycleRunner
	registry *contenttype.Registry
	logger   *slog.Logger
}

// runCycle triggers one processing cycle synchronously and returns its result.
// A cycle that could not start because another one is running answers 409.
func (h *opsHandlers) runCycle(w http.ResponseWriter, r *http.Request) {
	if h.cycles == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "processor_disabled",
			Err:     errors.New("the processor is not running in this instance"),
		})
		return
	}

	res, err := h.cycles.RunCycle(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "manual cycle failed", "error", err)
		code := http.StatusInternalServerError
		var derr *apperrors.DiscoveryError
		if errors.As(err, &derr) {
			code = http.StatusServiceUnavailable
		}
		WriteError(w, ErrorParams{Code: code, ErrCode: "cycle_failed", Err: err})
		return
	}
	if res.Skipped {
		WriteJSON(w, http.StatusConflict, res)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

type contentTypeView struct {
	Key               string            `json:"key"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	RequiredVariables []string          `json:"required_variables"`
	Defaults          map[string]string `json:"defaults,omitempty"`
}

func (h *opsHandlers) listContentTypes(w http.ResponseWriter, _ *http.Request) {
	all := h.registry.All()
	out := make([]contentTypeView, 0, len(all))
	for _, t := range all {
		out = append(out, contentTypeView{
			Key:               string(t.Key),
			Name:              t.Name,
			Description:       t.Description,
			RequiredVariables: t.RequiredVariables,
			Defaults:          t.Defaults,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"content_types": out, "count": len(out)})
}
