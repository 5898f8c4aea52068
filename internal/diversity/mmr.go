// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package diversity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/ranker"
)

// Config holds diversifier configuration.
type Config struct {
	// Lambda is the relevance/diversity trade-off: 1.0 is pure relevance,
	// 0.0 pure diversity.
	// Default: 0.7 (weighted toward relevance).
	Lambda float64 `json:"lambda" koanf:"lambda" validate:"gte=0,lte=1"`

	// CosineWeight scales the embedding cosine term of the blended
	// similarity. Default: 0.5.
	CosineWeight float64 `json:"cosine_weight" koanf:"cosine_weight"`

	// DomainWeight scales the source-domain term.
	// Default: 0.3.
	DomainWeight float64 `json:"domain_weight" koanf:"domain_weight"`

	// TemporalWeight scales the publication-proximity term.
	// Default: 0.2.
	TemporalWeight float64 `json:"temporal_weight" koanf:"temporal_weight"`

	// TemporalTauHours is the decay constant of the temporal term: two
	// stories this many hours apart score 1/e on that term.
	// Default: 24.
	TemporalTauHours float64 `json:"temporal_tau_hours" koanf:"temporal_tau_hours" validate:"gt=0"`

	// ParentDomainSimilarity is the domain term for two distinct hosts
	// sharing a registrable parent (news.example.com vs example.com).
	// Default: 0.8.
	ParentDomainSimilarity float64 `json:"parent_domain_similarity" koanf:"parent_domain_similarity"`

	// MaxPerDomain caps each domain in the domain diversity pass.
	// Default: 3.
	MaxPerDomain int `json:"max_per_domain" koanf:"max_per_domain" validate:"gte=1"`

	// MinTimeGapHours is the default spacing enforced by the temporal
	// diversity pass. Default: 2.
	MinTimeGapHours float64 `json:"min_time_gap_hours" koanf:"min_time_gap_hours"`
}

// DefaultConfig returns production defaults for the diversifier.
func DefaultConfig() Config {
	return Config{
		Lambda:                 0.7,
		CosineWeight:           0.5,
		DomainWeight:           0.3,
		TemporalWeight:         0.2,
		TemporalTauHours:       24,
		ParentDomainSimilarity: 0.8,
		MaxPerDomain:           3,
		MinTimeGapHours:        2,
	}
}

// Validate checks the configuration for systemic errors.
func (c Config) Validate() error {
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("lambda must be in [0, 1], got %f", c.Lambda)
	}
	if c.TemporalTauHours <= 0 {
		return fmt.Errorf("temporal_tau_hours must be positive, got %f", c.TemporalTauHours)
	}
	if c.MaxPerDomain < 1 {
		return fmt.Errorf("max_per_domain must be at least 1, got %d", c.MaxPerDomain)
	}
	if c.MinTimeGapHours < 0 {
		return fmt.Errorf("min_time_gap_hours must not be negative, got %f", c.MinTimeGapHours)
	}
	return nil
}

// Options adjusts one diversification call. Nil-able fields fall back to the
// configured defaults.
type Options struct {
	// Lambda overrides the configured relevance/diversity trade-off.
	Lambda *float64

	// MaxPerDomain overrides the configured per-domain cap.
	MaxPerDomain int

	// EnsureDomainDiversity enables the per-domain cap pass.
	EnsureDomainDiversity bool

	// EnsureTemporalDiversity enables the minimum publication-gap pass.
	EnsureTemporalDiversity bool

	// MinTimeGapHours overrides the configured minimum gap. Zero keeps the
	// configured default.
	MinTimeGapHours float64
}

// Diversifier re-orders canonical candidates by maximal marginal relevance
// so one story, outlet, or moment does not dominate the result page.
type Diversifier struct {
	cfg    Config
	logger zerolog.Logger
}

// NewDiversifier creates a diversifier with the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDiversifier(cfg Config, logger zerolog.Logger) (*Diversifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid diversity config: %w", err)
	}
	return &Diversifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "diversity").Logger(),
	}, nil
}

// Diversify greedily selects up to maxResults candidates trading relevance
// against redundancy, then applies the optional domain and temporal
// diversity passes.
//
// Selection maximizes lambda*relevance - (1-lambda)*maxSimilarity, where the
// similarity of each remaining candidate is computed against the selected
// set only, keeping the pass O(maxResults * pool) rather than quadratic in
// the pool.
//
// A pool at or below capacity is returned unchanged. Option errors are
// rejected before any work; per-candidate gaps (missing embeddings, missing
// dates) degrade the affected similarity terms to zero instead.
func (d *Diversifier) Diversify(ctx context.Context, candidates []ranker.Candidate, maxResults int, opts Options) ([]ranker.Candidate, error) {
	lambda := d.cfg.Lambda
	if opts.Lambda != nil {
		lambda = *opts.Lambda
	}
	if lambda < 0 || lambda > 1 {
		return nil, fmt.Errorf("lambda must be in [0, 1], got %f", lambda)
	}
	if maxResults < 0 {
		return nil, fmt.Errorf("max_results must not be negative, got %d", maxResults)
	}
	if opts.MaxPerDomain < 0 {
		return nil, fmt.Errorf("max_per_domain must not be negative, got %d", opts.MaxPerDomain)
	}
	if opts.MinTimeGapHours < 0 {
		return nil, fmt.Errorf("min_time_gap_hours must not be negative, got %f", opts.MinTimeGapHours)
	}

	if len(candidates) == 0 || maxResults == 0 {
		return []ranker.Candidate{}, nil
	}

	start := time.Now()
	metrics.CandidatesIn.WithLabelValues("diversify").Add(float64(len(candidates)))

	var selected []ranker.Candidate
	if len(candidates) <= maxResults {
		selected = cloneAll(candidates)
	} else {
		selected = d.selectMMR(candidates, maxResults, lambda)
		if opts.EnsureDomainDiversity {
			selected = d.applyDomainDiversity(selected, opts)
		}
		if opts.EnsureTemporalDiversity {
			selected = d.applyTemporalDiversity(selected, opts)
		}
		if len(selected) > maxResults {
			selected = selected[:maxResults]
		}
	}

	metrics.CandidatesOut.WithLabelValues("diversify").Add(float64(len(selected)))
	metrics.StageDuration.WithLabelValues("diversify").Observe(time.Since(start).Seconds())

	d.logger.Debug().
		Int("input", len(candidates)).
		Int("selected", len(selected)).
		Float64("lambda", lambda).
		Msg("results diversified")

	return selected, nil
}

// selectMMR runs the greedy maximal-marginal-relevance loop. The seed is
// always the highest-scored candidate; ties keep input order.
func (d *Diversifier) selectMMR(candidates []ranker.Candidate, maxResults int, lambda float64) []ranker.Candidate {
	pool := cloneAll(candidates)
	selected := make([]ranker.Candidate, 0, maxResults)

	seed := 0
	for i := 1; i < len(pool); i++ {
		if pool[i].Scores.Final > pool[seed].Scores.Final {
			seed = i
		}
	}
	selected = append(selected, pool[seed])
	pool = append(pool[:seed], pool[seed+1:]...)

	// maxSim caches each pool candidate's similarity to the selected set;
	// after each pick only the new member needs comparing.
	maxSim := make([]float64, len(pool))
	for i := range pool {
		maxSim[i] = d.similarity(pool[i], selected[0])
	}

	for len(selected) < maxResults && len(pool) > 0 {
		best := 0
		bestScore := math.Inf(-1)
		for i := range pool {
			score := lambda*pool[i].Scores.Final - (1-lambda)*maxSim[i]
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		picked := pool[best]
		selected = append(selected, picked)
		pool = append(pool[:best], pool[best+1:]...)
		maxSim = append(maxSim[:best], maxSim[best+1:]...)

		for i := range pool {
			if sim := d.similarity(pool[i], picked); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	return selected
}

// applyDomainDiversity drops candidates beyond the per-domain cap in
// diversified order.
func (d *Diversifier) applyDomainDiversity(selected []ranker.Candidate, opts Options) []ranker.Candidate {
	limit := d.cfg.MaxPerDomain
	if opts.MaxPerDomain > 0 {
		limit = opts.MaxPerDomain
	}

	perDomain := make(map[string]int)
	kept := selected[:0]
	for _, cand := range selected {
		if perDomain[cand.Domain] >= limit {
			metrics.CapDropped.WithLabelValues("domain_diversity").Inc()
			d.logger.Debug().
				Str("id", cand.ID).
				Str("domain", cand.Domain).
				Int("cap", limit).
				Msg("dropped by domain diversity pass")
			continue
		}
		perDomain[cand.Domain]++
		kept = append(kept, cand)
	}
	return kept
}

// applyTemporalDiversity drops candidates published within the minimum gap
// of an already-kept candidate. Candidates without dates are never dropped
// here.
func (d *Diversifier) applyTemporalDiversity(selected []ranker.Candidate, opts Options) []ranker.Candidate {
	gap := d.cfg.MinTimeGapHours
	if opts.MinTimeGapHours > 0 {
		gap = opts.MinTimeGapHours
	}

	kept := selected[:0]
	var keptTimes []time.Time
	for _, cand := range selected {
		if cand.PublishedAt != nil && tooClose(*cand.PublishedAt, keptTimes, gap) {
			metrics.CapDropped.WithLabelValues("temporal_diversity").Inc()
			d.logger.Debug().
				Str("id", cand.ID).
				Time("published_at", *cand.PublishedAt).
				Float64("gap_hours", gap).
				Msg("dropped by temporal diversity pass")
			continue
		}
		if cand.PublishedAt != nil {
			keptTimes = append(keptTimes, *cand.PublishedAt)
		}
		kept = append(kept, cand)
	}
	return kept
}

func tooClose(t time.Time, kept []time.Time, gapHours float64) bool {
	for _, k := range kept {
		if math.Abs(t.Sub(k).Hours()) < gapHours {
			return true
		}
	}
	return false
}

// similarity blends embedding cosine, source-domain proximity, and
// publication proximity into one redundancy estimate in [0, 1]. Missing
// embeddings or dates zero out the corresponding term.
func (d *Diversifier) similarity(a, b ranker.Candidate) float64 {
	sim := d.cfg.DomainWeight * d.domainSimilarity(a.Domain, b.Domain)
	sim += d.cfg.TemporalWeight * d.temporalSimilarity(a.PublishedAt, b.PublishedAt)
	if cos := cosineSimilarity(a.Embedding, b.Embedding); cos > 0 {
		sim += d.cfg.CosineWeight * cos
	}
	return sim
}

// domainSimilarity scores two hosts: exact match 1.0, shared registrable
// parent (last two labels) the configured fraction, unrelated 0. Empty
// domains never match.
func (d *Diversifier) domainSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if parentDomain(a) == parentDomain(b) {
		return d.cfg.ParentDomainSimilarity
	}
	return 0
}

func (d *Diversifier) temporalSimilarity(a, b *time.Time) float64 {
	if a == nil || b == nil {
		return 0
	}
	gap := math.Abs(a.Sub(*b).Hours())
	return math.Exp(-gap / d.cfg.TemporalTauHours)
}

// parentDomain approximates the registrable domain as the last two labels.
// Good enough for grouping subdomains of one outlet; multi-label public
// suffixes (co.uk) over-group and are acceptable for a similarity heuristic.
func parentDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// cosineSimilarity returns the cosine of two vectors, clamped to [0, 1].
// Mismatched or missing vectors yield 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}

func cloneAll(candidates []ranker.Candidate) []ranker.Candidate {
	out := make([]ranker.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = c.Clone()
	}
	return out
}
