// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package newsrank ranks, deduplicates, and diversifies news-article
// candidates produced by upstream lexical and vector retrieval, returning
// the final ordered result page for a search or question-answering surface.
//
// The pipeline runs five stages in a fixed order:
//
//	filter -> score -> canonicalize -> diversify -> finalize
//
// The scorer blends four signals (semantic similarity, lexical rank,
// freshness decay, source authority) under a runtime-tunable weight profile
// and applies category, missing-date, and duplicate penalties, producing an
// auditable per-signal breakdown on every candidate. The deduplication
// engine collapses syndicated near-duplicates to one canonical record per
// story via MinHash/LSH with transitive grouping. The diversifier re-ranks
// with maximal marginal relevance so one outlet, story, or moment does not
// dominate the page.
//
// Construct one Service per process and call Rank once per query; the three
// stages are also exposed individually (ScoreAndRank, CanonicalizeArticles,
// DiversifyResults) for callers composing their own flow. The Service is
// safe for concurrent use: the only shared mutable state is the dedup
// engine's signature index, which synchronizes internally.
//
// Malformed per-candidate input (missing dates, embeddings, domains)
// degrades to neutral scores with a recorded flag; only systemic
// misconfiguration returns an error. Empty input is valid everywhere and
// yields empty output.
package newsrank
