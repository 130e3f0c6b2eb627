package http

import (
	"net/http"
	"strings"
)

// requireDeviceToken rejects data-route requests without a bearer device
// token. The stub does not verify the token signature; it only enforces that
// provisioned clients send one, which is enough to exercise the client's
// unauthorized handling.
func (h *Handler) requireDeviceToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			h.logger.Debug().Err(err).Str("func", "*Handler.requireDeviceToken").
				Msg("rejecting request without device token")
			http.Error(w, "device token required", http.StatusUnauthorized)
			return
		}
		_ = token

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrEmptyAuthorizationHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidAuthorizationHeader
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}
