// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package diversity

import (
	"testing"

	"github.com/tomtom215/newsrank/internal/ranker"
)

func TestAnalyzeDiversity_Empty(t *testing.T) {
	d := newTestDiversifier(t)

	report := d.AnalyzeDiversity(nil)
	if report.ResultCount != 0 || report.UniqueDomains != 0 {
		t.Errorf("empty report = %+v, want zero counts", report)
	}
	if report.DiversityScore != 1 {
		t.Errorf("DiversityScore = %f, want 1 for empty page", report.DiversityScore)
	}
}

func TestAnalyzeDiversity_VariedPage(t *testing.T) {
	d := newTestDiversifier(t)

	results := []ranker.Candidate{
		{ID: "a", Domain: "reuters.com", PublishedAt: at(1)},
		{ID: "b", Domain: "bbc.com", PublishedAt: at(13)},
		{ID: "c", Domain: "npr.org", PublishedAt: at(25)},
	}

	report := d.AnalyzeDiversity(results)
	if report.ResultCount != 3 || report.UniqueDomains != 3 {
		t.Errorf("counts = %d results / %d domains, want 3/3", report.ResultCount, report.UniqueDomains)
	}
	if report.DomainDistribution["reuters.com"] != 1 {
		t.Errorf("distribution = %v, want one per domain", report.DomainDistribution)
	}
	if span := report.TemporalSpanHours; span < 23.9 || span > 24.1 {
		t.Errorf("TemporalSpanHours = %f, want ~24", span)
	}
	if report.DiversityScore <= 0.5 {
		t.Errorf("DiversityScore = %f, want clearly varied (> 0.5)", report.DiversityScore)
	}
	if report.MaxSimilarity < report.AvgSimilarity {
		t.Errorf("MaxSimilarity %f < AvgSimilarity %f", report.MaxSimilarity, report.AvgSimilarity)
	}
}

func TestAnalyzeDiversity_RedundantPage(t *testing.T) {
	d := newTestDiversifier(t)

	emb := []float64{0.3, 0.7, 0.1}
	results := []ranker.Candidate{
		{ID: "a", Domain: "reuters.com", PublishedAt: at(1), Embedding: emb},
		{ID: "b", Domain: "reuters.com", PublishedAt: at(1.2), Embedding: emb},
	}

	report := d.AnalyzeDiversity(results)
	if report.UniqueDomains != 1 {
		t.Errorf("UniqueDomains = %d, want 1", report.UniqueDomains)
	}
	// Same domain, near-same time, identical embeddings: similarity close
	// to 1 and diversity close to 0.
	if report.AvgSimilarity < 0.9 {
		t.Errorf("AvgSimilarity = %f, want >= 0.9 for a redundant page", report.AvgSimilarity)
	}
	if report.DiversityScore > 0.1 {
		t.Errorf("DiversityScore = %f, want <= 0.1 for a redundant page", report.DiversityScore)
	}
}
