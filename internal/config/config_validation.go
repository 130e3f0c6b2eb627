package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Kept permissive on purpose: per-binary views apply defaults and run their
// own stricter validation.
func (cfg *StructuredConfig) validate() error {
	return nil
}

// validate for the client view. An empty database DSN is allowed: it selects
// the in-memory store, which embedded hosts use when the platform owns
// persistence.
func (cfg *AppConfig) validate() error {
	if cfg.Registry.BaseURL == "" || cfg.Registry.RequestTimeout == 0 {
		return ErrInvalidRegistryConfigs
	}

	if cfg.Backup.Interval == 0 || cfg.Backup.MaxLocalBackups == 0 {
		return ErrInvalidBackupConfigs
	}

	if cfg.Sync.Interval == 0 || cfg.Sync.MaxRetries == 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *StubConfig) validate() error {
	if cfg.Stub.HTTPAddress == "" {
		return ErrInvalidStubConfigs
	}

	return nil
}
