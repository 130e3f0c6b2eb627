package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		HashKey       string `json:"hash_key"`
		DeviceToken   string `json:"device_token"`
		ClientInfo    string `json:"client_info"`
		SchemaVersion int    `json:"schema_version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		MaxBytes int64 `json:"max_bytes"`
	} `json:"storage,omitempty"`

	Registry struct {
		BaseURL        string   `json:"address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"registry,omitempty"`

	Backup struct {
		Interval        Duration `json:"interval"`
		MaxLocalBackups int      `json:"max_local_backups"`
		MaxAge          Duration `json:"max_age"`
	} `json:"backup,omitempty"`

	Sync struct {
		Interval      Duration `json:"interval"`
		MaxRetries    int      `json:"max_retries"`
		ProbeInterval Duration `json:"probe_interval"`
	} `json:"sync,omitempty"`

	Stub struct {
		HTTPAddress  string `json:"address"`
		StartOffline bool   `json:"start_offline"`
	} `json:"stub,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			HashKey:       jsonCfg.App.HashKey,
			DeviceToken:   jsonCfg.App.DeviceToken,
			ClientInfo:    jsonCfg.App.ClientInfo,
			SchemaVersion: jsonCfg.App.SchemaVersion,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			MaxBytes: jsonCfg.Storage.MaxBytes,
		},
		Registry: Registry{
			BaseURL:        jsonCfg.Registry.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Registry.RequestTimeout),
		},
		Backup: Backup{
			Interval:        time.Duration(jsonCfg.Backup.Interval),
			MaxLocalBackups: jsonCfg.Backup.MaxLocalBackups,
			MaxAge:          time.Duration(jsonCfg.Backup.MaxAge),
		},
		Sync: Sync{
			Interval:      time.Duration(jsonCfg.Sync.Interval),
			MaxRetries:    jsonCfg.Sync.MaxRetries,
			ProbeInterval: time.Duration(jsonCfg.Sync.ProbeInterval),
		},
		Stub: Stub{
			HTTPAddress:  jsonCfg.Stub.HTTPAddress,
			StartOffline: jsonCfg.Stub.StartOffline,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
