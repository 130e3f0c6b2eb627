package http

import (
	"encoding/json"
	"net/http"

	"github.com/opentimber/fieldsync/internal/utils"
)

type offlineToggle struct {
	Offline bool `json:"offline"`
}

// setOffline flips the offline simulation. Deliberately outside the offline
// group so the stub can always be brought back.
func (h *Handler) setOffline(w http.ResponseWriter, r *http.Request) {
	var req offlineToggle
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	h.SetOffline(req.Offline)
	h.logger.Info().Bool("offline", req.Offline).Msg("offline simulation toggled")

	_, _ = utils.WriteJSON(w, offlineToggle{Offline: req.Offline}, http.StatusOK)
}
