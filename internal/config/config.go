// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/newsrank/internal/dedup"
	"github.com/tomtom215/newsrank/internal/diversity"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/ranker"
)

// envPrefix namespaces environment overrides, e.g.
// NEWSRANK_RANKER_MIN_COSINE=0.3 or NEWSRANK_LOGGING_LEVEL=debug.
const envPrefix = "NEWSRANK_"

// Config is the full runtime configuration tree.
type Config struct {
	// Logging configures structured log output.
	Logging logging.Config `json:"logging" koanf:"logging"`

	// Ranker configures scoring, weight profiles, penalties, and caps.
	Ranker ranker.Config `json:"ranker" koanf:"ranker"`

	// Dedup configures near-duplicate detection and canonical selection.
	Dedup dedup.Config `json:"dedup" koanf:"dedup"`

	// Diversity configures MMR re-ranking and the diversity passes.
	Diversity diversity.Config `json:"diversity" koanf:"diversity"`
}

// DefaultConfig returns the full default configuration tree.
func DefaultConfig() Config {
	return Config{
		Logging:   logging.DefaultConfig(),
		Ranker:    *ranker.DefaultConfig(),
		Dedup:     dedup.DefaultConfig(),
		Diversity: diversity.DefaultConfig(),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the whole tree, combining struct-tag validation with each
// section's own invariants.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Ranker.Validate(); err != nil {
		return fmt.Errorf("ranker: %w", err)
	}
	if err := c.Dedup.Validate(); err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if err := c.Diversity.Validate(); err != nil {
		return fmt.Errorf("diversity: %w", err)
	}
	return nil
}

// Clone returns a deep copy safe to mutate independently.
func (c *Config) Clone() Config {
	out := *c
	out.Ranker = *c.Ranker.Clone()

	if c.Dedup.DomainPriority != nil {
		out.Dedup.DomainPriority = make(map[string]float64, len(c.Dedup.DomainPriority))
		for k, v := range c.Dedup.DomainPriority {
			out.Dedup.DomainPriority[k] = v
		}
	}
	return out
}

// Load builds a configuration from defaults, an optional YAML file, and
// NEWSRANK_ environment variables, in ascending precedence. An empty path
// skips the file layer; a missing file at a given path is an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// NEWSRANK_RANKER_MIN_COSINE -> ranker.min_cosine: only the first
	// underscore separates the section from the key.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
