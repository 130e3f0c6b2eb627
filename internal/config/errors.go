package config

import "errors"

// Validation errors returned by the per-binary config views when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidRegistryConfigs indicates invalid registry transport settings
	// (for example, missing base URL or zero request timeout).
	ErrInvalidRegistryConfigs = errors.New("invalid registry configuration")
	// ErrInvalidBackupConfigs indicates invalid backup lifecycle settings
	// (for example, zero interval or zero retention bound).
	ErrInvalidBackupConfigs = errors.New("invalid backup configuration")
	// ErrInvalidSyncConfigs indicates invalid sync engine settings
	// (for example, zero drain interval or zero retry bound).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidStubConfigs indicates invalid stub registry settings.
	ErrInvalidStubConfigs = errors.New("invalid stub registry configuration")
)
