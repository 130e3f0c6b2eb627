package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

type httpRegistryClient struct {
	client  *resty.Client
	hashKey string
	logger  *logger.Logger

	mu     sync.RWMutex
	token  string
	userID string
}

// NewHTTPRegistryClient builds a resty-backed RegistryClient from the merged
// configuration. The device token, when present, is parsed once for its
// subject claim; parse failures are logged and leave UserID empty rather than
// failing construction, because the registry itself still validates the
// token on every call.
func NewHTTPRegistryClient(cfg config.Registry, appCfg config.App, log *logger.Logger) (RegistryClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("registry base URL is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout)

	c := &httpRegistryClient{
		client:  cli,
		hashKey: appCfg.HashKey,
		logger:  log,
	}
	c.SetToken(appCfg.DeviceToken)

	return c, nil
}

// SetToken installs a new device token and re-extracts the user identity
// from it.
func (h *httpRegistryClient) SetToken(token string) {
	token = strings.TrimSpace(token)

	userID := ""
	if token != "" {
		sub, err := parseSubjectFromJWT(token)
		if err != nil {
			h.logger.Warn().Err(err).Str("func", "httpRegistryClient.SetToken").
				Msg("device token has no readable subject claim")
		} else {
			userID = sub
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
	h.userID = userID
}

func (h *httpRegistryClient) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpRegistryClient) UserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userID
}

func (h *httpRegistryClient) Submit(ctx context.Context, item models.SyncItem) error {
	req := models.SubmitRequest{
		ID:         item.ID,
		Kind:       item.Kind,
		Payload:    item.Payload,
		EnqueuedAt: item.EnqueuedAt,
	}
	if h.hashKey != "" {
		req.Hash = utils.HashString(string(item.Payload), h.hashKey)
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/records/submit")
	if err != nil {
		return fmt.Errorf("%w: submit request: %w", ErrRegistryUnavailable, err)
	}

	return mapHTTPError(resp)
}

func (h *httpRegistryClient) UploadBackup(ctx context.Context, record models.BackupRecord) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(record).
		Post("/api/backups")
	if err != nil {
		return fmt.Errorf("%w: upload backup request: %w", ErrRegistryUnavailable, err)
	}

	return mapHTTPError(resp)
}

func (h *httpRegistryClient) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: health request: %w", ErrRegistryUnavailable, err)
	}

	return mapHTTPError(resp)
}

func (h *httpRegistryClient) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// mapHTTPError classifies a registry response into the sentinel error
// taxonomy: network-level failures are mapped by the callers, 5xx and 429
// are retryable, remaining 4xx are final.
func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	var offline models.OfflineResponse
	if err := json.Unmarshal(resp.Body(), &offline); err == nil && offline.Offline {
		return fmt.Errorf("%w: %s", ErrRegistryUnavailable, offline.Message)
	}

	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: http %d", ErrThrottled, code)
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= http.StatusInternalServerError:
		if body == "" {
			body = http.StatusText(code)
		}
		return fmt.Errorf("%w: http %d: %s", ErrRegistryUnavailable, code, body)
	default:
		if body == "" {
			body = http.StatusText(code)
		}
		return fmt.Errorf("%w: http %d: %s", ErrRejected, code, body)
	}
}

func parseSubjectFromJWT(tokenString string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token subject missing")
	}

	return sub, nil
}
