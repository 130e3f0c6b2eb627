package http

import (
	"net/http"

	"github.com/opentimber/fieldsync/internal/utils"
)

// health is the probe endpoint field clients use to detect connectivity. It
// sits behind the offline middleware so the simulation fools probes too.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	_, _ = utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
