// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/ranker"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestCanonicalizer(t *testing.T) *Canonicalizer {
	t.Helper()
	c, err := NewCanonicalizer(DefaultConfig(), NewMemoryStore(1000), testLogger())
	if err != nil {
		t.Fatalf("NewCanonicalizer: %v", err)
	}
	return c
}

func ts(s string) *time.Time {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &parsed
}

const fedStory = "The Federal Reserve raised interest rates by a quarter point on Wednesday, citing persistent inflation and a labor market that remains tight across most sectors of the economy. Officials signaled that further increases remain on the table if price pressures do not ease through the autumn."

func TestCanonicalize_EmptyInput(t *testing.T) {
	c := newTestCanonicalizer(t)
	out := c.Canonicalize(context.Background(), nil)
	if out == nil || len(out) != 0 {
		t.Errorf("Canonicalize(nil) = %v, want empty non-nil slice", out)
	}
}

func TestCanonicalize_DistinctStoriesPassThrough(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "a", Domain: "reuters.com", Title: "Fed raises rates a quarter point", Text: fedStory},
		{ID: "b", Domain: "bbc.com", Title: "Wildfires spread across southern Europe", Text: "Firefighters in Greece and Spain battled fast-moving wildfires on Tuesday as a record heatwave pushed temperatures above forty degrees for the sixth consecutive day, forcing thousands of residents to evacuate coastal towns."},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	for _, cand := range out {
		if !cand.IsCanonical {
			t.Errorf("%s: IsCanonical = false, want true", cand.ID)
		}
		if cand.AlternativesCount != 0 || len(cand.AlternativeIDs) != 0 {
			t.Errorf("%s: alternatives = %d/%v, want none", cand.ID, cand.AlternativesCount, cand.AlternativeIDs)
		}
		if cand.ContentHash == "" {
			t.Errorf("%s: ContentHash not populated", cand.ID)
		}
	}
}

func TestCanonicalize_ExactDuplicatesCollapse(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "a", Domain: "smallblog.example", Title: "Fed raises rates", Text: fedStory},
		{ID: "b", Domain: "reuters.com", Title: "Fed raises rates", Text: fedStory},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}

	winner := out[0]
	if winner.ID != "b" {
		t.Errorf("canonical = %s, want b (higher domain authority)", winner.ID)
	}
	if winner.AlternativesCount != 1 || len(winner.AlternativeIDs) != 1 || winner.AlternativeIDs[0] != "a" {
		t.Errorf("alternatives = %d/%v, want [a]", winner.AlternativesCount, winner.AlternativeIDs)
	}

	if canon, ok := c.GetCanonicalID("a"); !ok || canon != "b" {
		t.Errorf("GetCanonicalID(a) = %q, %v; want b, true", canon, ok)
	}
	if canon, ok := c.GetCanonicalID("b"); !ok || canon != "b" {
		t.Errorf("GetCanonicalID(b) = %q, %v; want b, true", canon, ok)
	}
}

func TestCanonicalize_NearDuplicatesCollapse(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "wire", Domain: "reuters.com", Title: "Fed raises rates by a quarter point", Text: fedStory},
		{ID: "mirror", Domain: "regionalnews.example", Title: "Fed raises rates by a quarter point", Text: "(Reuters) - " + fedStory + " Subscribe to our newsletter."},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].ID != "wire" {
		t.Errorf("canonical = %s, want wire", out[0].ID)
	}
}

// Transitivity: A matches B and B matches C, but A and C alone drift
// further apart. All three must still land in one group.
func TestCanonicalize_TransitiveGrouping(t *testing.T) {
	c := newTestCanonicalizer(t)

	followup := "Markets moved sharply after the announcement with treasury yields climbing to their highest level since spring while equities gave back early gains in afternoon trading. Economists at several major banks revised their forecasts for the remainder of the year predicting at least one additional increase before policymakers pause to assess the cumulative effect on household spending and business investment."
	base := strings.Fields(fedStory + " " + followup)

	mid := make([]string, len(base))
	copy(mid, base)
	// Rewrite a small block so A~B and B~C stay above the threshold while
	// A and C drift further apart.
	for i := 0; i < 4; i++ {
		mid[10+i] = "altered" + mid[10+i]
	}
	far := make([]string, len(mid))
	copy(far, mid)
	for i := 0; i < 4; i++ {
		far[60+i] = "altered" + far[60+i]
	}

	in := []ranker.Candidate{
		{ID: "a", Domain: "reuters.com", Title: "Fed raises rates", Text: strings.Join(base, " ")},
		{ID: "b", Domain: "site-b.example", Title: "Fed raises rates", Text: strings.Join(mid, " ")},
		{ID: "c", Domain: "site-c.example", Title: "Fed raises rates", Text: strings.Join(far, " ")},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1 transitive group", len(out))
	}
	if out[0].AlternativesCount != 2 {
		t.Errorf("AlternativesCount = %d, want 2", out[0].AlternativesCount)
	}
	if len(out[0].AlternativeIDs) != out[0].AlternativesCount {
		t.Errorf("AlternativeIDs length %d != AlternativesCount %d", len(out[0].AlternativeIDs), out[0].AlternativesCount)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "a", Domain: "reuters.com", Title: "Fed raises rates a quarter point", Text: fedStory},
		{ID: "b", Domain: "mirror.example", Title: "Fed raises rates a quarter point", Text: fedStory},
		{ID: "c", Domain: "bbc.com", Title: "Wildfires spread across southern Europe", Text: "Firefighters in Greece and Spain battled fast-moving wildfires on Tuesday as a record heatwave pushed temperatures above forty degrees, forcing thousands of residents to evacuate coastal towns along the Mediterranean."},
	}

	first := c.Canonicalize(context.Background(), in)
	second := c.Canonicalize(context.Background(), first)

	if len(second) != len(first) {
		t.Fatalf("second pass returned %d candidates, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d: id %s became %s", i, first[i].ID, second[i].ID)
		}
		if first[i].AlternativesCount != second[i].AlternativesCount {
			t.Errorf("%s: AlternativesCount %d became %d", first[i].ID, first[i].AlternativesCount, second[i].AlternativesCount)
		}
		if !second[i].IsCanonical {
			t.Errorf("%s: lost canonical flag on second pass", second[i].ID)
		}
	}
}

func TestCanonicalize_EmptyBodyHashesOnTitle(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "a", Domain: "x.example", Title: "Breaking: port workers announce strike"},
		{ID: "b", Domain: "y.example", Title: "Breaking: port workers announce strike"},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want title-only duplicates collapsed to 1", len(out))
	}
}

func TestCanonicalize_AgeBonusFavorsEarliestPublisher(t *testing.T) {
	c := newTestCanonicalizer(t)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	in := []ranker.Candidate{
		{ID: "late", Domain: "site-a.example", Title: "Fed raises rates a quarter point", Text: fedStory, PublishedAt: ts("2026-08-26T10:00:00Z")},
		{ID: "early", Domain: "site-b.example", Title: "Fed raises rates a quarter point", Text: fedStory, PublishedAt: ts("2026-08-20T10:00:00Z")},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	if out[0].ID != "early" {
		t.Errorf("canonical = %s, want early (age bonus)", out[0].ID)
	}
}

func TestCanonicalize_TieBreaksByInputOrder(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "first", Domain: "x.example", Title: "Fed raises rates a quarter point", Text: fedStory},
		{ID: "second", Domain: "y.example", Title: "Fed raises rates a quarter point", Text: fedStory},
	}

	out := c.Canonicalize(context.Background(), in)
	if len(out) != 1 || out[0].ID != "first" {
		t.Errorf("canonical = %v, want first on equal priority", out)
	}
}

func TestCanonicalize_DoesNotMutateInput(t *testing.T) {
	c := newTestCanonicalizer(t)

	in := []ranker.Candidate{
		{ID: "a", Domain: "reuters.com", Title: "Fed raises rates", Text: fedStory},
	}

	c.Canonicalize(context.Background(), in)

	if in[0].IsCanonical || in[0].ContentHash != "" {
		t.Error("input slice was mutated")
	}
}

func TestIsDuplicate(t *testing.T) {
	c := newTestCanonicalizer(t)

	a := ranker.Candidate{Title: "Fed raises interest rates by a quarter point", Text: fedStory}
	b := ranker.Candidate{Title: "Fed raises interest rates by a quarter point today", Text: fedStory + " Officials spoke after the meeting."}
	other := ranker.Candidate{Title: "Wildfires spread across southern Europe", Text: "Firefighters battled fast-moving wildfires as a heatwave pushed temperatures to records across the region."}

	if !c.IsDuplicate(a, b) {
		t.Error("IsDuplicate(a, b) = false, want true for near-identical wire copy")
	}
	if c.IsDuplicate(a, other) {
		t.Error("IsDuplicate(a, other) = true, want false for unrelated stories")
	}
	if !c.IsDuplicate(a, a) {
		t.Error("IsDuplicate(a, a) = false, want true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"too few permutations", func(c *Config) { c.NumPermutations = 4 }, true},
		{"zero shingle size", func(c *Config) { c.ShingleSize = 0 }, true},
		{"bands above permutations", func(c *Config) { c.Bands = 256 }, true},
		{"threshold above one", func(c *Config) { c.JaccardThreshold = 1.5 }, true},
		{"zero title threshold", func(c *Config) { c.TitleJaccardThreshold = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
