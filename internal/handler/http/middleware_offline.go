package http

import (
	"net/http"

	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

// withOffline answers every request with the 503 offline body while
// simulated-offline mode is on. Field clients treat this body, on any
// status, as "registry unavailable" and keep their queue intact.
func (h *Handler) withOffline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Offline() {
			_, _ = utils.WriteJSON(w, models.OfflineResponse{
				Error:   "service_unavailable",
				Message: "registry is in simulated offline mode",
				Offline: true,
			}, http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}
