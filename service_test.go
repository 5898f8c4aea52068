// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package newsrank

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New(config.DefaultConfig(), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func pubAt(t *testing.T, s string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return &parsed
}

const wireBody = "The Federal Reserve raised interest rates by a quarter point on Wednesday, citing persistent inflation and a labor market that remains tight across most sectors. Officials signaled that further increases remain on the table if price pressures do not ease through the autumn, and markets moved sharply on the announcement."

func TestPipeline_EndToEnd(t *testing.T) {
	s := newTestService(t)

	in := []Candidate{
		{
			ID: "reut-1", ArticleID: "reut-1", Domain: "reuters.com",
			Title: "Fed raises interest rates by a quarter point",
			Text:  wireBody,
			Similarity: 0.82, FTSRank: 7.1,
			PublishedAt: pubAt(t, "2026-08-25T08:00:00Z"),
		},
		{
			ID: "reut-2", ArticleID: "reut-2", Domain: "reuters.com",
			Title: "Fed raises interest rates by a quarter point today",
			Text:  wireBody + " Analysts expect another move.",
			Similarity: 0.80, FTSRank: 6.8,
			PublishedAt: pubAt(t, "2026-08-25T09:00:00Z"),
		},
		{
			ID: "reut-3", ArticleID: "reut-3", Domain: "reuters.com",
			Title: "Fed raises interest rates by a quarter point on Wednesday",
			Text:  wireBody,
			Similarity: 0.81, FTSRank: 7.0,
			PublishedAt: pubAt(t, "2026-08-25T10:00:00Z"),
		},
		{
			ID: "guard-1", ArticleID: "guard-1", Domain: "theguardian.com",
			Title: "Treasury yields climb to a decade high after the decision",
			Text:  "Government bond yields rose to their highest level in a decade on Thursday as investors priced in a longer period of restrictive policy, with the ten year note briefly touching levels last seen before the financial crisis.",
			Similarity: 0.71, FTSRank: 5.2,
			PublishedAt: pubAt(t, "2026-08-25T12:00:00Z"),
		},
		{
			ID: "npr-1", ArticleID: "npr-1", Domain: "npr.org",
			Title: "What higher borrowing costs mean for mortgages and savings",
			Text:  "Households are already feeling the squeeze from higher borrowing costs, with average mortgage offers climbing past seven percent and savings accounts finally paying meaningful interest after years near zero.",
			Similarity: 0.66, FTSRank: 4.4,
			PublishedAt: pubAt(t, "2026-08-25T15:00:00Z"),
		},
	}

	opts := DefaultOptions()
	opts.MaxPerDomain = 3

	result, err := s.Rank(context.Background(), in, "fed rate decision", 3, opts)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if len(result.Results) != 3 {
		t.Fatalf("got %d results, want exactly 3", len(result.Results))
	}

	domains := make(map[string]int)
	var reutersItem *Candidate
	for i := range result.Results {
		domains[result.Results[i].Domain]++
		if result.Results[i].Domain == "reuters.com" {
			reutersItem = &result.Results[i]
		}
	}
	if domains["reuters.com"] != 1 || domains["theguardian.com"] != 1 || domains["npr.org"] != 1 {
		t.Fatalf("domain spread = %v, want one canonical Reuters plus the two distinct stories", domains)
	}
	if reutersItem.AlternativesCount != 2 {
		t.Errorf("Reuters alternatives_count = %d, want 2", reutersItem.AlternativesCount)
	}
	if len(reutersItem.AlternativeIDs) != 2 {
		t.Errorf("Reuters alternative_ids = %v, want 2 entries", reutersItem.AlternativeIDs)
	}
	if !reutersItem.IsCanonical {
		t.Error("Reuters item not marked canonical")
	}

	for _, c := range result.Results {
		if c.Scores.Final <= 0 {
			t.Errorf("%s: final = %f, want positive", c.ID, c.Scores.Final)
		}
		if c.PostFlags == nil {
			t.Errorf("%s: PostFlags is nil", c.ID)
		}
	}

	// Results sorted descending by final score.
	for i := 1; i < len(result.Results); i++ {
		if result.Results[i].Scores.Final > result.Results[i-1].Scores.Final {
			t.Errorf("result %d outranks result %d", i, i-1)
		}
	}

	if result.TraceID == "" {
		t.Error("TraceID not populated")
	}
	if result.Summary.Input != 5 || result.Summary.Returned != 3 {
		t.Errorf("summary = %+v, want input 5, returned 3", result.Summary)
	}

	// Folded duplicates remain resolvable to their canonical record.
	for _, alt := range reutersItem.AlternativeIDs {
		canon, ok := s.GetCanonicalID(alt)
		if !ok || canon != reutersItem.ID {
			t.Errorf("GetCanonicalID(%s) = %q, %v; want %s", alt, canon, ok, reutersItem.ID)
		}
	}
}

func TestPipeline_EmptyBatch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	scored, summary, err := s.ScoreAndRank(ctx, nil, "anything", DefaultOptions())
	if err != nil || len(scored) != 0 {
		t.Errorf("ScoreAndRank(empty) = %v, %v; want empty, nil", scored, err)
	}
	if summary != (Summary{}) {
		t.Errorf("summary = %+v, want zeroed", summary)
	}

	if out := s.CanonicalizeArticles(ctx, nil); len(out) != 0 {
		t.Errorf("CanonicalizeArticles(empty) = %v, want empty", out)
	}

	diversified, err := s.DiversifyResults(ctx, nil, 5, DefaultOptions())
	if err != nil || len(diversified) != 0 {
		t.Errorf("DiversifyResults(empty) = %v, %v; want empty, nil", diversified, err)
	}

	result, err := s.Rank(ctx, nil, "anything", 5, DefaultOptions())
	if err != nil {
		t.Fatalf("Rank(empty): %v", err)
	}
	if len(result.Results) != 0 {
		t.Errorf("Rank(empty) returned %d results, want 0", len(result.Results))
	}
}

func TestRank_RejectsInvalidArguments(t *testing.T) {
	s := newTestService(t)

	if _, err := s.Rank(context.Background(), nil, "q", 0, DefaultOptions()); err == nil {
		t.Error("max_results 0 accepted, want error")
	}

	opts := DefaultOptions()
	opts.LambdaParam = 2.0
	in := []Candidate{{ID: "a", ArticleID: "a", Domain: "x.example", Title: "T", Text: "body", Similarity: 0.5, FTSRank: 1}}
	if _, err := s.Rank(context.Background(), in, "q", 3, opts); err == nil {
		t.Error("lambda 2.0 accepted, want error")
	}
}

func TestResult_JSON(t *testing.T) {
	s := newTestService(t)

	in := []Candidate{
		{
			ID: "a", ArticleID: "a", Domain: "reuters.com",
			Title: "Fed raises rates", Text: wireBody,
			Similarity: 0.8, FTSRank: 5,
			PublishedAt: pubAt(t, "2026-08-25T08:00:00Z"),
		},
	}

	result, err := s.Rank(context.Background(), in, "fed rates", 3, DefaultOptions())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	raw, err := result.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(string(raw), `"trace_id"`) {
		t.Error("serialized result missing trace_id")
	}

	var decoded Result
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.TraceID != result.TraceID || len(decoded.Results) != len(result.Results) {
		t.Error("round-tripped result does not match")
	}
	if decoded.Results[0].Scores.Final != result.Results[0].Scores.Final {
		t.Error("score breakdown lost in serialization")
	}
}

func TestNewFromConfigFile(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		s, err := NewFromConfigFile("")
		if err != nil {
			t.Fatalf("NewFromConfigFile: %v", err)
		}
		defer s.Close()

		out, _, err := s.ScoreAndRank(context.Background(), nil, "q", DefaultOptions())
		if err != nil || len(out) != 0 {
			t.Errorf("service from defaults not usable: %v, %v", out, err)
		}
	})

	t.Run("invalid file rejected", func(t *testing.T) {
		if _, err := NewFromConfigFile("/nonexistent/config.yaml"); err == nil {
			t.Error("missing config file accepted, want error")
		}
	})
}

func TestAnalyzeDiversity_ThroughService(t *testing.T) {
	s := newTestService(t)

	results := []Candidate{
		{ID: "a", Domain: "reuters.com", PublishedAt: pubAt(t, "2026-08-25T08:00:00Z")},
		{ID: "b", Domain: "bbc.com", PublishedAt: pubAt(t, "2026-08-25T20:00:00Z")},
	}

	report := s.AnalyzeDiversity(results)
	if report.UniqueDomains != 2 {
		t.Errorf("UniqueDomains = %d, want 2", report.UniqueDomains)
	}
	if report.TemporalSpanHours != 12 {
		t.Errorf("TemporalSpanHours = %f, want 12", report.TemporalSpanHours)
	}
}
