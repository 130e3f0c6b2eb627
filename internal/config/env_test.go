package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, envVars map[string]string) {
	t.Helper()
	for k, v := range envVars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"APP_HASH_KEY":       "security_hash",
		"APP_DEVICE_TOKEN":   "device.jwt.token",
		"APP_CLIENT_INFO":    "fieldsync/test",
		"APP_SCHEMA_VERSION": "2",

		"REGISTRY_ADDRESS":         "https://registry.example.org",
		"REGISTRY_REQUEST_TIMEOUT": "30s",

		// Storage has nested prefixes: STORAGE_ + DB_
		"STORAGE_DB_DATABASE_URI": "/data/fieldsync.db",
		"STORAGE_MAX_BYTES":       "1048576",

		"BACKUP_INTERVAL":          "15m",
		"BACKUP_MAX_LOCAL_BACKUPS": "10",
		"BACKUP_MAX_AGE":           "720h",

		"SYNC_INTERVAL":       "2m",
		"SYNC_MAX_RETRIES":    "3",
		"SYNC_PROBE_INTERVAL": "30s",

		"STUB_ADDRESS":       "localhost:8080",
		"STUB_START_OFFLINE": "true",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "security_hash", cfg.App.HashKey)
	assert.Equal(t, "device.jwt.token", cfg.App.DeviceToken)
	assert.Equal(t, "fieldsync/test", cfg.App.ClientInfo)
	assert.Equal(t, 2, cfg.App.SchemaVersion)

	assert.Equal(t, "https://registry.example.org", cfg.Registry.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Registry.RequestTimeout)

	assert.Equal(t, "/data/fieldsync.db", cfg.Storage.DB.DSN)
	assert.Equal(t, int64(1048576), cfg.Storage.MaxBytes)

	assert.Equal(t, 15*time.Minute, cfg.Backup.Interval)
	assert.Equal(t, 10, cfg.Backup.MaxLocalBackups)
	assert.Equal(t, 720*time.Hour, cfg.Backup.MaxAge)

	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 3, cfg.Sync.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Sync.ProbeInterval)

	assert.Equal(t, "localhost:8080", cfg.Stub.HTTPAddress)
	assert.True(t, cfg.Stub.StartOffline)
}

func TestParseEnv_PartialFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"REGISTRY_ADDRESS": "https://registry.example.org",
		"SYNC_MAX_RETRIES": "5",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "https://registry.example.org", cfg.Registry.BaseURL)
	assert.Zero(t, cfg.Registry.RequestTimeout)

	assert.Equal(t, 5, cfg.Sync.MaxRetries)
	assert.Zero(t, cfg.Sync.Interval)

	// Others untouched
	assert.Empty(t, cfg.App.HashKey)
	assert.Empty(t, cfg.Storage.DB.DSN)
	assert.Zero(t, cfg.Backup.MaxLocalBackups)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	setEnvVars(t, map[string]string{"BACKUP_INTERVAL": "not-a-duration"})

	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	require.Error(t, err)
}
