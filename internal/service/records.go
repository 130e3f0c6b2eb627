package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/store"
	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/models"
)

// RecordStore implements RecordService: captured field records are persisted
// under their own area key and handed to the sync queue for delivery. The
// store doubles as the "records" snapshot provider so captures are covered
// by backups.
type RecordStore struct {
	store  store.LocalStore
	queue  SyncQueue
	uuid   *utils.UUIDGenerator
	logger *logger.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewRecordStore(st store.LocalStore, queue SyncQueue, gen *utils.UUIDGenerator, log *logger.Logger) *RecordStore {
	return &RecordStore{
		store:  st,
		queue:  queue,
		uuid:   gen,
		logger: log,
		now:    time.Now,
	}
}

func (s *RecordStore) Capture(ctx context.Context, kind string, payload json.RawMessage, priority models.Priority) (models.FieldRecord, error) {
	if !priority.Valid() {
		return models.FieldRecord{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	record := models.FieldRecord{
		ID:         s.uuid.Generate(),
		Payload:    payload,
		CapturedAt: s.now().UTC(),
	}

	s.mu.Lock()
	records := s.load(ctx)
	records = append(records, record)
	err := s.persist(ctx, records)
	s.mu.Unlock()
	if err != nil {
		return models.FieldRecord{}, err
	}

	item := models.SyncItem{
		ID:         record.ID,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: record.CapturedAt,
		Priority:   priority,
	}
	if err := s.queue.Enqueue(ctx, item); err != nil {
		return models.FieldRecord{}, fmt.Errorf("enqueueing record %s: %w", record.ID, err)
	}

	return record, nil
}

// MarkSynced flips the synced flag. The flag is monotonic: once set it never
// clears, so marking an already-synced record changes nothing.
func (s *RecordStore) MarkSynced(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load(ctx)
	for i, r := range records {
		if r.ID != id {
			continue
		}
		if r.Synced {
			return nil
		}
		records[i].Synced = true
		return s.persist(ctx, records)
	}
	return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

func (s *RecordStore) List(ctx context.Context) ([]models.FieldRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx), nil
}

// ── SnapshotProvider ──

func (s *RecordStore) Name() string {
	return "records"
}

func (s *RecordStore) Collect(ctx context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(s.load(ctx))
	if err != nil {
		return nil, fmt.Errorf("collecting records area: %w", err)
	}
	return raw, nil
}

func (s *RecordStore) Restore(ctx context.Context, payload json.RawMessage) error {
	var records []models.FieldRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return fmt.Errorf("restoring records area: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, records)
}

func (s *RecordStore) load(ctx context.Context) []models.FieldRecord {
	raw, err := s.store.Get(ctx, KeyFieldRecords)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("func", "RecordStore.load").
				Msg("reading captured records failed, treating as empty")
		}
		return nil
	}

	var records []models.FieldRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn().Err(err).Str("func", "RecordStore.load").
			Msg("captured records corrupted, treating as empty")
		return nil
	}
	return records
}

func (s *RecordStore) persist(ctx context.Context, records []models.FieldRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling captured records: %w", err)
	}
	if err := s.store.Set(ctx, KeyFieldRecords, raw); err != nil {
		return fmt.Errorf("persisting captured records: %w", err)
	}
	return nil
}
