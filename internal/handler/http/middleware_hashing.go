package http

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

// submitHashing verifies the HMAC-SHA256 transport signature that clients
// attach to submissions. Verification is skipped entirely when the stub has
// no hash key configured.
func (h *Handler) submitHashing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.hashKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		h.logger.Debug().Str("func", "*Handler.submitHashing").Msg("checking hash begins")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.logger.Err(err).Str("func", "*Handler.submitHashing").Msg("failed to read request body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// restore request body for the downstream handler
		r.Body = io.NopCloser(bytes.NewReader(body))

		var req models.SubmitRequest
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
			h.logger.Err(err).Str("func", "*Handler.submitHashing").Msg("failed to decode JSON")
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		hashedPayload := hex.EncodeToString(utils.Hash(req.Payload))
		if hashedPayload != req.Hash {
			h.logger.Error().Str("func", "*Handler.submitHashing").
				Str("hash from request", req.Hash).
				Str("hashed payload", hashedPayload).
				Msg("hashes are not equal")
			http.Error(w, "Integrity check failed", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}
