package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-r registry base URL
//	-d local database path (SQLite)
//	-c/-config json file path with configs
//	-hash-key transport hash key
//	-device-token registry device token (JWT)
//	-backup-interval automatic backup interval (e.g., "15m")
//	-sync-interval periodic drain interval (e.g., "2m")
//	-request-timeout registry request timeout (e.g., "15s")
//	-a stub registry listen address host:port
func ParseFlags() *StructuredConfig {
	var registryURL string
	var databaseDSN string
	var jsonConfigPath string
	var hashKey string
	var deviceToken string
	var backupInterval time.Duration
	var syncInterval time.Duration
	var requestTimeout time.Duration
	var stubAddress string

	flag.StringVar(&registryURL, "r", "", "Registry base URL")
	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&hashKey, "hash-key", "", "Transport hash key")
	flag.StringVar(&deviceToken, "device-token", "", "Registry device token")
	flag.DurationVar(&backupInterval, "backup-interval", 0, "Automatic backup interval (e.g., 15m)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic drain interval (e.g., 2m)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Registry request timeout (e.g., 15s)")
	flag.StringVar(&stubAddress, "a", "", "Stub registry listen address host:port")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			HashKey:     hashKey,
			DeviceToken: deviceToken,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Registry: Registry{
			BaseURL:        registryURL,
			RequestTimeout: requestTimeout,
		},
		Backup: Backup{
			Interval: backupInterval,
		},
		Sync: Sync{
			Interval: syncInterval,
		},
		Stub: Stub{
			HTTPAddress: stubAddress,
		},
		JSONFilePath: jsonConfigPath,
	}
}
