// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package dedup implements near-duplicate detection and canonicalization
// for news candidates.
//
// Detection runs in three tiers, cheapest first:
//
//  1. Exact: SHA-256 over normalized text (lowercased, URLs, emails, and
//     wire-service boilerplate stripped, whitespace collapsed). Identical
//     hashes are duplicates with no further work.
//  2. Indexed: 128-permutation MinHash signatures over 3-token shingles,
//     bucketed in a banded LSH index. Bucket collisions are verified
//     against the signature-similarity threshold before they count.
//  3. Pairwise: title token Jaccard, then full shingle-set Jaccard, used
//     by the IsDuplicate predicate when no index is in play.
//
// Matches union into groups transitively: syndicated copy A matching B and
// B matching C puts all three in one group even if A and C drift apart,
// which is the common shape for wire stories edited independently by each
// subscriber outlet.
//
// One candidate per group survives as canonical, chosen by domain
// authority, publication age (earliest wins), content length, and title
// quality. The losers' ids are recorded on the winner and in a persistent
// id -> canonical-id map (in-memory LRU or badger) served by
// GetCanonicalID.
//
// The Canonicalizer is safe for concurrent use; index mutation is
// serialized behind a single lock while signature computation stays
// outside it.
package dedup
