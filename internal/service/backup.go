package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opentimber/fieldsync/internal/adapter"
	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/store"
	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/internal/workers"
	"github.com/opentimber/fieldsync/models"
)

// BackupManager implements BackupService over the local store. Snapshots are
// assembled from an ordered list of named providers; each provider owns one
// area of the payload and failures are isolated per area.
type BackupManager struct {
	store     store.LocalStore
	client    adapter.RegistryClient
	providers []SnapshotProvider
	uuid      *utils.UUIDGenerator
	logger    *logger.Logger

	schemaVersion int
	clientInfo    string
	sessionID     string
	maxLocal      int
	maxAge        time.Duration

	// mu serializes load-modify-persist cycles on the record collection.
	mu   sync.Mutex
	stop func()
	now  func() time.Time
}

// NewBackupManager wires the manager. providers are snapshotted in the given
// order; a fresh session id is generated per process.
func NewBackupManager(
	st store.LocalStore,
	client adapter.RegistryClient,
	providers []SnapshotProvider,
	gen *utils.UUIDGenerator,
	cfg *config.AppConfig,
	log *logger.Logger,
) *BackupManager {
	return &BackupManager{
		store:         st,
		client:        client,
		providers:     providers,
		uuid:          gen,
		logger:        log,
		schemaVersion: cfg.App.SchemaVersion,
		clientInfo:    cfg.App.ClientInfo,
		sessionID:     gen.Generate(),
		maxLocal:      cfg.Backup.MaxLocalBackups,
		maxAge:        cfg.Backup.MaxAge,
		now:           time.Now,
	}
}

// Init starts the periodic snapshot cycle and registers the shutdown
// snapshot. Timers start here, never at construction.
func (m *BackupManager) Init(sched workers.Scheduler, interval time.Duration) {
	m.stop = sched.Every(interval, func(ctx context.Context) {
		if _, err := m.CreateAutoBackup(ctx); err != nil {
			m.logger.Warn().Err(err).Str("func", "BackupManager.Init").
				Msg("scheduled backup failed")
		}
		if _, err := m.CleanupOldBackups(ctx, m.maxAge); err != nil {
			m.logger.Warn().Err(err).Str("func", "BackupManager.Init").
				Msg("scheduled cleanup failed")
		}
	})
	sched.OnShutdown(func(ctx context.Context) {
		if _, err := m.CreateAutoBackup(ctx); err != nil {
			m.logger.Warn().Err(err).Str("func", "BackupManager.Init").
				Msg("shutdown backup failed")
		}
	})
}

// Dispose halts the periodic snapshot cycle. Safe to call before Init.
func (m *BackupManager) Dispose() {
	if m.stop != nil {
		m.stop()
	}
}

func (m *BackupManager) CreateAutoBackup(ctx context.Context) (models.BackupRecord, error) {
	return m.createBackup(ctx, models.BackupKindLocal, "")
}

func (m *BackupManager) CreateManualBackup(ctx context.Context, description string) (models.BackupRecord, error) {
	record, err := m.createBackup(ctx, models.BackupKindManual, description)
	if err != nil {
		return models.BackupRecord{}, err
	}

	// Remote copy is best effort: the local backup above already succeeded
	// and its outcome must not depend on connectivity.
	remote := record
	remote.Kind = models.BackupKindCloud
	if err := m.client.UploadBackup(ctx, remote); err != nil {
		m.logger.Warn().Err(err).Str("backup", record.ID).
			Str("func", "BackupManager.CreateManualBackup").
			Msg("remote backup copy failed")
	}

	return record, nil
}

// createBackup snapshots every provider and persists the resulting record. A
// provider failure drops its area from the payload; only storage failures
// propagate.
func (m *BackupManager) createBackup(ctx context.Context, kind, description string) (models.BackupRecord, error) {
	payload := make(map[string]json.RawMessage, len(m.providers))
	for _, p := range m.providers {
		data, err := p.Collect(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Str("area", p.Name()).
				Str("func", "BackupManager.createBackup").
				Msg("snapshot provider failed, area omitted")
			continue
		}
		payload[p.Name()] = data
	}

	record := models.BackupRecord{
		ID:          m.uuid.Generate(),
		CreatedAt:   m.now().UTC(),
		Kind:        kind,
		Description: description,
		Payload:     payload,
		Metadata: models.BackupMetadata{
			SchemaVersion: m.schemaVersion,
			ClientInfo:    m.clientInfo,
			SessionID:     m.sessionID,
			UserID:        m.client.UserID(),
		},
	}

	if err := m.save(ctx, record); err != nil {
		return models.BackupRecord{}, err
	}
	return record, nil
}

// save appends record to the retained collection and rotates the oldest
// records out past the retention bound.
func (m *BackupManager) save(ctx context.Context, record models.BackupRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.loadRecords(ctx)
	records = append(records, record)

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	for len(records) > m.maxLocal {
		m.logger.Info().Str("backup", records[0].ID).
			Time("created_at", records[0].CreatedAt).
			Str("func", "BackupManager.save").
			Msg("rotating out oldest backup")
		records = records[1:]
	}

	return m.persistRecords(ctx, records)
}

func (m *BackupManager) RestoreFromBackup(ctx context.Context, id string) error {
	record, err := m.find(ctx, id)
	if err != nil {
		return err
	}

	for _, p := range m.providers {
		payload, ok := record.Payload[p.Name()]
		if !ok {
			continue
		}
		if err := p.Restore(ctx, payload); err != nil {
			m.logger.Warn().Err(err).Str("area", p.Name()).Str("backup", id).
				Str("func", "BackupManager.RestoreFromBackup").
				Msg("area restore failed, continuing")
		}
	}
	return nil
}

func (m *BackupManager) ExportBackup(ctx context.Context, id string) ([]byte, error) {
	record, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("serializing backup %s: %w", id, err)
	}

	point := models.RecoveryPoint{
		ID:          record.ID,
		CreatedAt:   record.CreatedAt,
		Description: record.Description,
		Payload:     raw,
		Checksum:    utils.Checksum(raw),
	}

	serialized, err := json.Marshal(point)
	if err != nil {
		return nil, fmt.Errorf("serializing recovery point %s: %w", id, err)
	}
	return serialized, nil
}

func (m *BackupManager) ImportBackup(ctx context.Context, serialized []byte) (models.BackupRecord, error) {
	var point models.RecoveryPoint
	if err := json.Unmarshal(serialized, &point); err != nil {
		return models.BackupRecord{}, fmt.Errorf("%w: %v", ErrInvalidBackupFormat, err)
	}
	if point.ID == "" || point.CreatedAt.IsZero() || len(point.Payload) == 0 || point.Checksum == "" {
		return models.BackupRecord{}, fmt.Errorf("%w: missing required fields", ErrInvalidBackupFormat)
	}
	if utils.Checksum(point.Payload) != point.Checksum {
		return models.BackupRecord{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidBackupFormat)
	}

	var record models.BackupRecord
	if err := json.Unmarshal(point.Payload, &record); err != nil {
		return models.BackupRecord{}, fmt.Errorf("%w: %v", ErrInvalidBackupFormat, err)
	}
	if record.ID == "" {
		return models.BackupRecord{}, fmt.Errorf("%w: record without id", ErrInvalidBackupFormat)
	}
	if record.CreatedAt.IsZero() {
		// A zero timestamp would sort as the oldest record and be the
		// first one rotated out.
		return models.BackupRecord{}, fmt.Errorf("%w: record without creation time", ErrInvalidBackupFormat)
	}

	if err := m.save(ctx, record); err != nil {
		return models.BackupRecord{}, err
	}
	return record, nil
}

func (m *BackupManager) CleanupOldBackups(ctx context.Context, maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().UTC().Add(-maxAge)
	records := m.loadRecords(ctx)

	kept := records[:0]
	removed := 0
	for _, r := range records {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := m.persistRecords(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (m *BackupManager) GetBackupStats(ctx context.Context) (models.BackupStats, error) {
	m.mu.Lock()
	records := m.loadRecords(ctx)
	m.mu.Unlock()

	stats := models.BackupStats{
		Total:  len(records),
		ByKind: make(map[string]int),
	}
	for i, r := range records {
		stats.ByKind[r.Kind]++
		created := r.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &records[i].CreatedAt
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			stats.Newest = &records[i].CreatedAt
		}
	}

	if len(records) > 0 {
		raw, err := json.Marshal(records)
		if err != nil {
			return models.BackupStats{}, fmt.Errorf("sizing backup collection: %w", err)
		}
		stats.SizeBytes = len(raw)
	}
	return stats, nil
}

func (m *BackupManager) List(ctx context.Context) ([]models.BackupRecord, error) {
	m.mu.Lock()
	records := m.loadRecords(ctx)
	m.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (m *BackupManager) find(ctx context.Context, id string) (models.BackupRecord, error) {
	m.mu.Lock()
	records := m.loadRecords(ctx)
	m.mu.Unlock()

	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.BackupRecord{}, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
}

// loadRecords reads the retained collection. A corrupted collection degrades
// to empty with a warning so one bad write never bricks backups.
func (m *BackupManager) loadRecords(ctx context.Context) []models.BackupRecord {
	raw, err := m.store.Get(ctx, KeyBackupRecords)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn().Err(err).Str("func", "BackupManager.loadRecords").
				Msg("reading backup collection failed, treating as empty")
		}
		return nil
	}

	var records []models.BackupRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		m.logger.Warn().Err(err).Str("func", "BackupManager.loadRecords").
			Msg("backup collection corrupted, treating as empty")
		return nil
	}
	return records
}

func (m *BackupManager) persistRecords(ctx context.Context, records []models.BackupRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling backup collection: %w", err)
	}
	if err := m.store.Set(ctx, KeyBackupRecords, raw); err != nil {
		return fmt.Errorf("persisting backup collection: %w", err)
	}
	return nil
}
