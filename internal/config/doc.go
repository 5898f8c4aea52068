// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package config loads and validates the runtime configuration tree.
//
// Sources layer in ascending precedence: compiled defaults, an optional
// YAML file, then NEWSRANK_-prefixed environment variables
// (NEWSRANK_RANKER_MIN_COSINE overrides ranker.min_cosine). Validation
// combines struct tags with each section's own invariant checks; an
// invalid configuration is rejected whole rather than partially applied.
//
// Manager keeps the active tree behind a read-write lock so weight
// profiles and thresholds can be reloaded at runtime. Readers get deep
// copies and never observe a half-applied reload.
package config
