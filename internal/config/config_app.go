package config

import (
	"fmt"
	"time"
)

// Defaults applied by [GetAppConfig] when a setting is absent from every
// configuration source.
const (
	DefaultRequestTimeout  = 15 * time.Second
	DefaultBackupInterval  = 15 * time.Minute
	DefaultMaxLocalBackups = 10
	DefaultBackupMaxAge    = 30 * 24 * time.Hour
	DefaultSyncInterval    = 2 * time.Minute
	DefaultMaxRetries      = 3
	DefaultProbeInterval   = 30 * time.Second
	DefaultStoreMaxBytes   = 64 << 20
)

// AppConfig is the field-client view of the merged structured configuration.
type AppConfig struct {
	// App contains application-level client settings.
	App App
	// Storage contains local persistence settings.
	Storage Storage
	// Registry contains registry transport settings.
	Registry Registry
	// Backup contains backup lifecycle settings.
	Backup Backup
	// Sync contains sync engine settings.
	Sync Sync
}

// GetAppConfig builds and validates the field-client config view from the
// merged structured configuration. Absent settings fall back to the
// compiled-in defaults above.
func GetAppConfig() (*AppConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	appCfg := &AppConfig{
		App:      cfg.App,
		Storage:  cfg.Storage,
		Registry: cfg.Registry,
		Backup:   cfg.Backup,
		Sync:     cfg.Sync,
	}
	appCfg.applyDefaults()

	return appCfg, appCfg.validate()
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Registry.RequestTimeout <= 0 {
		cfg.Registry.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Backup.Interval <= 0 {
		cfg.Backup.Interval = DefaultBackupInterval
	}
	if cfg.Backup.MaxLocalBackups <= 0 {
		cfg.Backup.MaxLocalBackups = DefaultMaxLocalBackups
	}
	if cfg.Backup.MaxAge <= 0 {
		cfg.Backup.MaxAge = DefaultBackupMaxAge
	}
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = DefaultSyncInterval
	}
	if cfg.Sync.MaxRetries <= 0 {
		cfg.Sync.MaxRetries = DefaultMaxRetries
	}
	if cfg.Sync.ProbeInterval <= 0 {
		cfg.Sync.ProbeInterval = DefaultProbeInterval
	}
	if cfg.Storage.MaxBytes <= 0 {
		cfg.Storage.MaxBytes = DefaultStoreMaxBytes
	}
	if cfg.App.SchemaVersion <= 0 {
		cfg.App.SchemaVersion = 1
	}
	if cfg.App.ClientInfo == "" {
		cfg.App.ClientInfo = "fieldsync"
	}
}

// StubConfig is the stub-registry view of the merged structured configuration.
type StubConfig struct {
	// Stub contains listen address and offline-simulation settings.
	Stub Stub
	// App carries the shared transport hash key used to verify submissions.
	App App
}

// GetStubConfig builds and validates the stub-registry config view.
func GetStubConfig() (*StubConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	stubCfg := &StubConfig{
		Stub: cfg.Stub,
		App:  cfg.App,
	}
	if stubCfg.Stub.HTTPAddress == "" {
		stubCfg.Stub.HTTPAddress = "localhost:8080"
	}

	return stubCfg, stubCfg.validate()
}
