// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package diversity

import (
	"time"

	"github.com/tomtom215/newsrank/internal/ranker"
)

// Report summarizes how varied a result page is. It feeds observability and
// tests only; ranking never consults it.
type Report struct {
	// ResultCount is the number of results analyzed.
	ResultCount int `json:"result_count"`

	// UniqueDomains is the number of distinct source domains.
	UniqueDomains int `json:"unique_domains"`

	// DomainDistribution maps each domain to its result count.
	DomainDistribution map[string]int `json:"domain_distribution"`

	// TemporalSpanHours is the spread between the oldest and newest dated
	// result. Zero when fewer than two results carry dates.
	TemporalSpanHours float64 `json:"temporal_span_hours"`

	// AvgSimilarity is the mean pairwise blended similarity.
	AvgSimilarity float64 `json:"avg_similarity"`

	// MaxSimilarity is the largest pairwise blended similarity.
	MaxSimilarity float64 `json:"max_similarity"`

	// DiversityScore is 1 - AvgSimilarity: 1.0 is a fully varied page.
	DiversityScore float64 `json:"diversity_score"`
}

// AnalyzeDiversity reports domain spread, temporal span, and pairwise
// content similarity over a final result page. Pairwise comparison is
// quadratic, which is fine at result-page sizes.
func (d *Diversifier) AnalyzeDiversity(results []ranker.Candidate) Report {
	report := Report{
		ResultCount:        len(results),
		DomainDistribution: make(map[string]int, len(results)),
		DiversityScore:     1,
	}

	var oldest, newest *time.Time
	for i := range results {
		report.DomainDistribution[results[i].Domain]++
		if t := results[i].PublishedAt; t != nil {
			if oldest == nil || t.Before(*oldest) {
				oldest = t
			}
			if newest == nil || t.After(*newest) {
				newest = t
			}
		}
	}
	report.UniqueDomains = len(report.DomainDistribution)
	if oldest != nil && newest != nil {
		report.TemporalSpanHours = newest.Sub(*oldest).Hours()
	}

	if len(results) < 2 {
		return report
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			sim := d.similarity(results[i], results[j])
			sum += sim
			if sim > report.MaxSimilarity {
				report.MaxSimilarity = sim
			}
			pairs++
		}
	}
	report.AvgSimilarity = sum / float64(pairs)
	report.DiversityScore = 1 - report.AvgSimilarity

	return report
}
