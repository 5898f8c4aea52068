// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package ranker implements the weighted multi-signal scorer of the ranking
// pipeline.
//
// # Scoring model
//
// Each candidate carries four independent raw signals: vector-retrieval
// cosine similarity, lexical full-text rank, publication recency, and source
// authority. The scorer normalizes the first two per batch (min-max),
// converts recency to an exponential decay score, resolves authority from an
// override, a static table, or a neutral default, and combines them:
//
//	final = w_sem*semantic + w_fts*lexical + w_fresh*freshness + w_source*source
//
// Weights come from one of two profiles: the news profile (freshness-heavy,
// 72h decay constant) or the evergreen profile selected when the query
// carries explanatory intent ("how", "why", "what is", "guide", ...), which
// discounts freshness heavily (240h decay constant).
//
// # Stage order
//
// The optional stages run in a fixed sequence:
//
//	off-topic filter -> composite scoring -> category penalty ->
//	date penalty -> duplicate penalty -> domain/article caps -> final sort
//
// The order is a deliberate design choice, not an inherited invariant: it
// determines which candidates get penalized versus dropped outright, and is
// intentionally encoded in exactly one place (Scorer.ScoreAndRank) so it can
// be revisited against real traffic.
//
// # Failure semantics
//
// A single malformed candidate (missing date, unknown domain) is flagged and
// scored with neutral/zero contributions, never raised as an error. Only
// systemic misconfiguration (invalid thresholds, negative caps) fails the
// call, since it would silently corrupt the whole batch. Empty input yields
// an empty output and a zeroed summary.
//
// Every penalty and drop is recorded in the candidate's PostFlags map and in
// the per-call Summary, so explainability is never silently lost.
package ranker
