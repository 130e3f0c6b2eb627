package http

import (
	"encoding/json"
	"net/http"

	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

// submit records one field submission. Resubmitting an already-recorded id
// acknowledges with duplicate=true and changes nothing, so at-least-once
// delivery on the client side stays safe.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Err(err).Str("func", "*Handler.submit").Msg("failed to decode submission")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "submission id is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	_, duplicate := h.accepted[req.ID]
	if !duplicate {
		h.accepted[req.ID] = req
	}
	h.mu.Unlock()

	if duplicate {
		h.logger.Debug().Str("id", req.ID).Str("func", "*Handler.submit").
			Msg("duplicate submission acknowledged")
	}

	_, _ = utils.WriteJSON(w, models.SubmitResponse{ID: req.ID, Duplicate: duplicate}, http.StatusOK)
}
