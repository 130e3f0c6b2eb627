package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for fieldsync.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the transport hash key,
	// the device token, and client identification.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Registry holds network settings for the remote regulatory registry.
	Registry Registry `envPrefix:"REGISTRY_"`

	// Backup holds backup lifecycle settings (interval, retention).
	Backup Backup `envPrefix:"BACKUP_"`

	// Sync holds sync engine settings (interval, retry bound).
	Sync Sync `envPrefix:"SYNC_"`

	// Stub holds settings for the development stub registry binary.
	Stub Stub `envPrefix:"STUB_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// HashKey is the HMAC key used for request integrity checking on
	// registry submissions. Must match the registry's configured key.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// DeviceToken is the JWT issued to this device at provisioning time.
	// It is attached to every registry call and its subject claim, when
	// present, becomes the user_id in backup metadata.
	// Env: APP_DEVICE_TOKEN
	DeviceToken string `env:"DEVICE_TOKEN"`

	// ClientInfo identifies the client build in backup metadata
	// (e.g. "fieldsync/1.4.0 android-tablet").
	// Env: APP_CLIENT_INFO
	ClientInfo string `env:"CLIENT_INFO"`

	// SchemaVersion is the snapshot payload schema version written into
	// every backup record.
	// Env: APP_SCHEMA_VERSION
	SchemaVersion int `env:"SCHEMA_VERSION"`
}

// Storage groups the configuration for the local persistence backend.
type Storage struct {
	// DB holds the local SQLite database settings.
	DB DB `envPrefix:"DB_"`

	// MaxBytes bounds the total size of all values held in the local
	// key/value store. Writes that would exceed the bound fail fast.
	// Zero means the compiled-in default.
	// Env: STORAGE_MAX_BYTES
	MaxBytes int64 `env:"MAX_BYTES"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path or connection string
	// (e.g. "/data/fieldsync.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Registry holds network and timeout settings for the remote registry client.
type Registry struct {
	// BaseURL is the registry endpoint base URL
	// (e.g. "https://registry.example.org").
	// Env: REGISTRY_ADDRESS
	BaseURL string `env:"ADDRESS"`

	// RequestTimeout is the per-request timeout for outbound registry
	// calls (e.g. "15s").
	// Env: REGISTRY_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Backup holds backup lifecycle settings.
type Backup struct {
	// Interval is how often the automatic snapshot runs.
	// Env: BACKUP_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// MaxLocalBackups bounds the number of retained backup records.
	// The oldest records are rotated out once the bound is exceeded.
	// Env: BACKUP_MAX_LOCAL_BACKUPS
	MaxLocalBackups int `env:"MAX_LOCAL_BACKUPS"`

	// MaxAge is the default age bound used by scheduled cleanup runs.
	// Env: BACKUP_MAX_AGE
	MaxAge time.Duration `env:"MAX_AGE"`
}

// Sync holds sync engine settings.
type Sync struct {
	// Interval is how often a periodic drain is attempted while online.
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// MaxRetries bounds how many times a retryable delivery failure is
	// retried before the item is parked as failed-final.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// ProbeInterval is how often the connectivity monitor probes the
	// registry health endpoint.
	// Env: SYNC_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`
}

// Stub holds settings for the development stub registry server.
type Stub struct {
	// HTTPAddress is the TCP address the stub registry listens on,
	// in "host:port" format.
	// Env: STUB_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// StartOffline makes the stub answer every data route with the
	// 503 offline body until toggled via the admin route.
	// Env: STUB_START_OFFLINE
	StartOffline bool `env:"START_OFFLINE"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
