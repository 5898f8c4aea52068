// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package config

import (
	"sync"

	"github.com/rs/zerolog"
)

// Manager holds the live configuration and supports reloading it without a
// process restart. Weight profiles and thresholds are tunables operators
// adjust while traffic is flowing; a reload that fails validation keeps the
// previous configuration active.
type Manager struct {
	mu     sync.RWMutex
	path   string
	cfg    Config
	logger zerolog.Logger
}

// NewManager loads the initial configuration from path (plus environment
// overrides) and returns a manager serving it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(path string, logger zerolog.Logger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{
		path:   path,
		cfg:    cfg,
		logger: logger.With().Str("component", "config").Logger(),
	}, nil
}

// Current returns a deep copy of the active configuration. Callers may
// mutate the copy freely.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// Reload re-reads the configuration source. On validation failure the
// active configuration is left untouched and the error returned.
func (m *Manager) Reload() error {
	cfg, err := Load(m.path)
	if err != nil {
		m.logger.Error().Err(err).Msg("config reload rejected")
		return err
	}

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()

	m.logger.Info().Str("path", m.path).Msg("configuration reloaded")
	return nil
}

// Swap replaces the active configuration with cfg after validating it.
// Used by callers that receive overrides through channels other than the
// config file, e.g. an admin surface.
func (m *Manager) Swap(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		m.logger.Error().Err(err).Msg("config swap rejected")
		return err
	}

	m.mu.Lock()
	m.cfg = cfg.Clone()
	m.mu.Unlock()

	m.logger.Info().Msg("configuration swapped")
	return nil
}
