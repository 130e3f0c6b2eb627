package http

import (
	"sync"

	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/models"
)

// Handler holds the stub registry's in-memory state. Accepted submissions
// are remembered by id so redelivery after an ambiguous failure is answered
// with duplicate=true instead of double-recording.
type Handler struct {
	hashKey string
	logger  *logger.Logger

	mu       sync.Mutex
	offline  bool
	accepted map[string]models.SubmitRequest
	backups  []models.BackupRecord
}

func NewHandler(cfg *config.StubConfig, logger *logger.Logger) *Handler {
	logger.Info().Bool("start_offline", cfg.Stub.StartOffline).Msg("http handler created")
	return &Handler{
		hashKey:  cfg.App.HashKey,
		logger:   logger,
		offline:  cfg.Stub.StartOffline,
		accepted: make(map[string]models.SubmitRequest),
	}
}

// Offline reports whether the stub is in simulated-offline mode.
func (h *Handler) Offline() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offline
}

// SetOffline switches simulated-offline mode on or off.
func (h *Handler) SetOffline(offline bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.offline = offline
}

// AcceptedCount reports how many distinct submissions the stub has recorded.
func (h *Handler) AcceptedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.accepted)
}

// ReceivedBackups returns the backup copies uploaded so far.
func (h *Handler) ReceivedBackups() []models.BackupRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.BackupRecord, len(h.backups))
	copy(out, h.backups)
	return out
}
