// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package diversity re-ranks canonical candidates with maximal marginal
// relevance (MMR) so a result page is not dominated by near-identical,
// same-outlet, or same-moment stories.
//
// The greedy loop seeds with the highest-scored candidate, then repeatedly
// picks the remaining candidate maximizing
//
//	lambda*relevance - (1-lambda)*maxSimilarityToSelected
//
// where similarity blends embedding cosine (weight 0.5), source-domain
// proximity (0.3), and publication proximity (0.2). Similarity is computed
// against the selected set only, so the loop is O(maxResults * pool).
//
// Two optional passes follow selection: a per-domain cap and a minimum
// publication gap. Both drop with logging, never silently.
//
// AnalyzeDiversity reports domain spread, temporal span, and pairwise
// similarity of a final page for observability.
package diversity
