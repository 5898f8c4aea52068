// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"encoding/binary"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// minHashSeed fixes the permutation parameters so signatures are identical
// across process restarts and test runs.
const minHashSeed = 42

// Signature is a fixed-size MinHash fingerprint of a document's shingle set.
// The Jaccard similarity of two shingle sets is approximated by the fraction
// of positions where two signatures agree.
type Signature []uint64

// minHasher computes MinHash signatures using one universal hash family
// (a*x + b over uint64) per permutation, with xxhash as the base token hash.
type minHasher struct {
	a []uint64
	b []uint64
}

// newMinHasher creates a hasher with the given permutation count.
func newMinHasher(numPerms int) *minHasher {
	if numPerms < 1 {
		numPerms = 1
	}

	rng := rand.New(rand.NewSource(minHashSeed)) //nolint:gosec // deterministic permutations, not crypto
	h := &minHasher{
		a: make([]uint64, numPerms),
		b: make([]uint64, numPerms),
	}
	for i := 0; i < numPerms; i++ {
		h.a[i] = rng.Uint64() | 1 // odd multiplier
		h.b[i] = rng.Uint64()
	}
	return h
}

// Signature computes the MinHash signature of a shingle set.
// An empty set yields a nil signature.
func (h *minHasher) Signature(shingles map[string]struct{}) Signature {
	if len(shingles) == 0 {
		return nil
	}

	sig := make(Signature, len(h.a))
	for i := range sig {
		sig[i] = ^uint64(0)
	}

	for shingle := range shingles {
		base := xxhash.Sum64String(shingle)
		for i := range sig {
			v := h.a[i]*base + h.b[i]
			if v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

// SignatureSimilarity estimates the Jaccard similarity of the underlying
// shingle sets as the fraction of agreeing signature positions.
func SignatureSimilarity(left, right Signature) float64 {
	if len(left) == 0 || len(right) == 0 || len(left) != len(right) {
		return 0
	}

	equal := 0
	for i := range left {
		if left[i] == right[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(left))
}

// lshIndex is a banded locality-sensitive index over MinHash signatures. It
// provides sub-quadratic near-duplicate discovery: two signatures collide in
// a bucket if they agree on every row of at least one band.
//
// The index is long-lived and seeded incrementally as each batch is
// processed. It is NOT safe for concurrent use by itself; the Canonicalizer
// serializes inserts and queries behind one coarse lock (index operations
// are sub-millisecond per item).
type lshIndex struct {
	bands int
	rows  int

	// buckets[band][bandHash] lists the ids whose signature hashed into
	// that band bucket.
	buckets []map[uint64][]string

	// sigs retains every inserted signature for verification of bucket
	// collisions against the real estimate.
	sigs map[string]Signature
}

// newLSHIndex creates an index for signatures of numPerms values split into
// the given number of bands. numPerms must be divisible by bands; the row
// count is derived.
func newLSHIndex(numPerms, bands int) *lshIndex {
	if bands < 1 {
		bands = 1
	}
	for numPerms%bands != 0 {
		bands--
	}

	idx := &lshIndex{
		bands:   bands,
		rows:    numPerms / bands,
		buckets: make([]map[uint64][]string, bands),
		sigs:    make(map[string]Signature),
	}
	for i := range idx.buckets {
		idx.buckets[i] = make(map[uint64][]string)
	}
	return idx
}

// Add inserts a signature under the given id. Re-inserting an id is a no-op.
func (idx *lshIndex) Add(id string, sig Signature) {
	if len(sig) == 0 {
		return
	}
	if _, exists := idx.sigs[id]; exists {
		return
	}

	idx.sigs[id] = sig
	for band := 0; band < idx.bands; band++ {
		key := idx.bandHash(sig, band)
		idx.buckets[band][key] = append(idx.buckets[band][key], id)
	}
}

// Query returns the ids whose signatures share at least one band bucket with
// sig and whose estimated Jaccard similarity meets the threshold.
func (idx *lshIndex) Query(sig Signature, threshold float64) []string {
	if len(sig) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var hits []string
	for band := 0; band < idx.bands; band++ {
		key := idx.bandHash(sig, band)
		for _, id := range idx.buckets[band][key] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if SignatureSimilarity(sig, idx.sigs[id]) >= threshold {
				hits = append(hits, id)
			}
		}
	}
	return hits
}

// Get returns the stored signature for an id.
func (idx *lshIndex) Get(id string) (Signature, bool) {
	sig, ok := idx.sigs[id]
	return sig, ok
}

// Size returns the number of signatures held by the index.
func (idx *lshIndex) Size() int {
	return len(idx.sigs)
}

// bandHash hashes one band of the signature into a bucket key.
func (idx *lshIndex) bandHash(sig Signature, band int) uint64 {
	var d xxhash.Digest
	d.Reset()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(band))
	_, _ = d.Write(buf[:])

	start := band * idx.rows
	for _, v := range sig[start : start+idx.rows] {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
