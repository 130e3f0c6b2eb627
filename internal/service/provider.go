package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opentimber/fieldsync/internal/store"
)

// AreaProvider is a store-backed SnapshotProvider for one opaque application
// data area (forms, preferences, navigation). The area's current value is
// whatever JSON document was last put under its key; the provider does not
// interpret it.
type AreaProvider struct {
	name  string
	store store.LocalStore
}

func NewAreaProvider(name string, st store.LocalStore) *AreaProvider {
	return &AreaProvider{name: name, store: st}
}

func (p *AreaProvider) Name() string {
	return p.name
}

// Put replaces the area's document. The application layer calls this on
// every local edit so snapshots always see the latest state.
func (p *AreaProvider) Put(ctx context.Context, doc json.RawMessage) error {
	if err := p.store.Set(ctx, AreaKey(p.name), doc); err != nil {
		return fmt.Errorf("writing area %s: %w", p.name, err)
	}
	return nil
}

// Get returns the area's current document, or ErrKeyNotFound.
func (p *AreaProvider) Get(ctx context.Context) (json.RawMessage, error) {
	raw, err := p.store.Get(ctx, AreaKey(p.name))
	if err != nil {
		return nil, fmt.Errorf("reading area %s: %w", p.name, err)
	}
	return raw, nil
}

// Collect snapshots the area. An area that was never written snapshots as
// JSON null so it still round-trips through backup and restore.
func (p *AreaProvider) Collect(ctx context.Context) (json.RawMessage, error) {
	raw, err := p.store.Get(ctx, AreaKey(p.name))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return json.RawMessage("null"), nil
		}
		return nil, fmt.Errorf("collecting area %s: %w", p.name, err)
	}
	return raw, nil
}

// Restore replaces the area's document with the snapshot payload. A null
// payload restores the never-written state.
func (p *AreaProvider) Restore(ctx context.Context, payload json.RawMessage) error {
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		if err := p.store.Delete(ctx, AreaKey(p.name)); err != nil {
			return fmt.Errorf("clearing area %s: %w", p.name, err)
		}
		return nil
	}
	if err := p.store.Set(ctx, AreaKey(p.name), payload); err != nil {
		return fmt.Errorf("restoring area %s: %w", p.name, err)
	}
	return nil
}
