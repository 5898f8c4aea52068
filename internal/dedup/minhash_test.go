// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"fmt"
	"reflect"
	"testing"
)

func shingleSet(text string) map[string]struct{} {
	return Shingles(Tokenize(text), 3)
}

func TestMinHasher_Deterministic(t *testing.T) {
	text := "central bank holds rates steady amid cooling inflation data"

	h1 := newMinHasher(128)
	h2 := newMinHasher(128)

	sig1 := h1.Signature(shingleSet(text))
	sig2 := h2.Signature(shingleSet(text))

	if !reflect.DeepEqual(sig1, sig2) {
		t.Error("independently constructed hashers produced different signatures for the same text")
	}
	if len(sig1) != 128 {
		t.Errorf("signature length = %d, want 128", len(sig1))
	}
}

func TestMinHasher_EmptySet(t *testing.T) {
	h := newMinHasher(128)
	if sig := h.Signature(nil); sig != nil {
		t.Errorf("Signature(nil) = %v, want nil", sig)
	}
}

func TestSignatureSimilarity(t *testing.T) {
	h := newMinHasher(128)

	base := "the federal reserve raised interest rates by a quarter point on wednesday citing persistent inflation and a tight labor market across most sectors"
	nearDup := base + " according to officials"
	unrelated := "local bakery wins the county fair sourdough competition for the third consecutive year delighting residents"

	sigBase := h.Signature(shingleSet(base))
	sigNear := h.Signature(shingleSet(nearDup))
	sigOther := h.Signature(shingleSet(unrelated))

	if sim := SignatureSimilarity(sigBase, sigBase); sim != 1.0 {
		t.Errorf("self similarity = %f, want 1.0", sim)
	}
	if sim := SignatureSimilarity(sigBase, sigNear); sim < 0.7 {
		t.Errorf("near-duplicate signature similarity = %f, want >= 0.7", sim)
	}
	if sim := SignatureSimilarity(sigBase, sigOther); sim > 0.2 {
		t.Errorf("unrelated signature similarity = %f, want <= 0.2", sim)
	}
	if sim := SignatureSimilarity(sigBase, nil); sim != 0 {
		t.Errorf("similarity against nil = %f, want 0", sim)
	}
}

func TestLSHIndex_AddQuery(t *testing.T) {
	h := newMinHasher(128)
	idx := newLSHIndex(128, 16)

	story := "senate passes the infrastructure funding bill after months of negotiation between both parties over highway spending"
	copyA := h.Signature(shingleSet(story))
	copyB := h.Signature(shingleSet(story + " today"))
	other := h.Signature(shingleSet("volcanic eruption in iceland draws tourists despite repeated safety warnings from local authorities this week"))

	idx.Add("a", copyA)
	idx.Add("b", copyB)
	idx.Add("c", other)

	if idx.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", idx.Size())
	}

	hits := idx.Query(copyA, 0.7)
	found := make(map[string]bool, len(hits))
	for _, id := range hits {
		found[id] = true
	}
	if !found["a"] || !found["b"] {
		t.Errorf("Query hits = %v, want both a and b", hits)
	}
	if found["c"] {
		t.Errorf("Query hits = %v, unrelated c should not pass verification", hits)
	}
}

func TestLSHIndex_ReinsertIsNoop(t *testing.T) {
	h := newMinHasher(128)
	idx := newLSHIndex(128, 16)

	sig := h.Signature(shingleSet("markets rally as tech earnings beat analyst expectations across the board"))
	idx.Add("x", sig)
	idx.Add("x", sig)

	if idx.Size() != 1 {
		t.Errorf("Size() after re-insert = %d, want 1", idx.Size())
	}
	if hits := idx.Query(sig, 0.7); len(hits) != 1 {
		t.Errorf("Query returned %v, want exactly one hit", hits)
	}
}

func TestLSHIndex_ScalesPastBruteForce(t *testing.T) {
	h := newMinHasher(128)
	idx := newLSHIndex(128, 16)

	for i := 0; i < 200; i++ {
		text := fmt.Sprintf("story number %d covers a completely different set of topics like topic%d and region%d today", i, i*7, i*13)
		idx.Add(fmt.Sprintf("doc-%d", i), h.Signature(shingleSet(text)))
	}

	probe := "story number 50 covers a completely different set of topics like topic350 and region650 today"
	hits := idx.Query(h.Signature(shingleSet(probe)), 0.9)
	if len(hits) != 1 || hits[0] != "doc-50" {
		t.Errorf("Query = %v, want exactly doc-50", hits)
	}
}
