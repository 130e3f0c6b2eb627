package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

// configBuilder accumulates partial configs from each source and merges them
// in build. Sources are appended in priority order; mergo keeps the first
// non-zero value for every field, so an earlier source shadows a later one.
// Source errors are joined and surfaced once, from build.
type configBuilder struct {
	configs []*StructuredConfig
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{}
}

// withEnv appends the config parsed from environment variables.
func (b *configBuilder) withEnv() *configBuilder {
	fromEnv := new(StructuredConfig)
	if err := parseEnv(fromEnv); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, fromEnv)
	return b
}

// withFlags appends the config assembled from command-line flags.
func (b *configBuilder) withFlags() *configBuilder {
	b.configs = append(b.configs, ParseFlags())
	return b
}

// withJSON appends the config read from the JSON file, if any earlier source
// named one. Must run after withEnv/withFlags: the path itself is a config
// value.
func (b *configBuilder) withJSON() *configBuilder {
	path := ""
	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			path = cfg.JSONFilePath
		}
	}
	if path == "" {
		return b
	}

	fromFile, err := parseJSON(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, fromFile)
	return b
}

// build merges every collected source into one StructuredConfig and
// validates the result.
func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("building config: %w", b.err)
	}

	merged := new(StructuredConfig)
	for _, cfg := range b.configs {
		if err := mergo.Merge(merged, cfg); err != nil {
			return nil, fmt.Errorf("merging config sources: %w", err)
		}
	}

	return merged, merged.validate()
}
