package http

import (
	"encoding/json"
	"net/http"

	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

// uploadBackup accepts a best-effort remote backup copy.
func (h *Handler) uploadBackup(w http.ResponseWriter, r *http.Request) {
	var record models.BackupRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.logger.Err(err).Str("func", "*Handler.uploadBackup").Msg("failed to decode backup")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if record.ID == "" {
		http.Error(w, "backup id is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.backups = append(h.backups, record)
	h.mu.Unlock()

	h.logger.Info().Str("backup", record.ID).Str("kind", record.Kind).
		Msg("backup copy received")

	_, _ = utils.WriteJSON(w, map[string]string{"id": record.ID}, http.StatusOK)
}
