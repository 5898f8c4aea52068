// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ranker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/metrics"
)

// Scorer computes the weighted composite score for a candidate batch and
// applies the optional filter, penalty, and cap stages. It is stateless
// apart from its immutable configuration and safe for concurrent use.
type Scorer struct {
	cfg    *Config
	logger zerolog.Logger
	// now is injectable for deterministic freshness tests.
	now func() time.Time
}

// NewScorer creates a scorer with the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScorer(cfg *Config, logger zerolog.Logger) (*Scorer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scorer config: %w", err)
	}

	return &Scorer{
		cfg:    cfg,
		logger: logger.With().Str("component", "scorer").Logger(),
		now:    time.Now,
	}, nil
}

// resolvedOptions holds per-call parameters after defaults are applied and
// validated. Systemic misconfiguration is rejected here, before any
// candidate is touched.
type resolvedOptions struct {
	filterOffTopic         bool
	applyCategoryPenalties bool
	applyDatePenalties     bool
	applyCaps              bool
	minCosine              float64
	maxPerDomain           int
	maxPerArticle          int
	profile                WeightProfile
}

// resolve validates the per-call options against the configuration.
func (s *Scorer) resolve(opts Options, query string) (resolvedOptions, error) {
	r := resolvedOptions{
		filterOffTopic:         opts.FilterOffTopic,
		applyCategoryPenalties: opts.ApplyCategoryPenalties,
		applyDatePenalties:     s.cfg.ApplyDatePenalties,
		applyCaps:              opts.ApplyCaps,
		minCosine:              s.cfg.MinCosine,
		maxPerDomain:           s.cfg.MaxPerDomain,
		maxPerArticle:          s.cfg.MaxPerArticle,
	}

	if opts.ApplyDatePenalties != nil {
		r.applyDatePenalties = *opts.ApplyDatePenalties
	}

	if opts.MinCosine != nil {
		if *opts.MinCosine < 0 || *opts.MinCosine > 1 {
			return r, fmt.Errorf("min_cosine must be in [0, 1], got %f", *opts.MinCosine)
		}
		r.minCosine = *opts.MinCosine
	}

	if opts.MaxPerDomain != 0 {
		if opts.MaxPerDomain < 0 {
			return r, fmt.Errorf("max_per_domain must be positive, got %d", opts.MaxPerDomain)
		}
		r.maxPerDomain = opts.MaxPerDomain
	}

	if opts.MaxPerArticle != 0 {
		if opts.MaxPerArticle < 0 {
			return r, fmt.Errorf("max_per_article must be positive, got %d", opts.MaxPerArticle)
		}
		r.maxPerArticle = opts.MaxPerArticle
	}

	if opts.Profile != nil {
		if opts.Profile.DecayTauHours <= 0 {
			return r, fmt.Errorf("profile %q: decay_tau_hours must be positive, got %f",
				opts.Profile.Name, opts.Profile.DecayTauHours)
		}
		if opts.Profile.Semantic < 0 || opts.Profile.Lexical < 0 ||
			opts.Profile.Freshness < 0 || opts.Profile.Source < 0 {
			return r, fmt.Errorf("profile %q: weights must be non-negative", opts.Profile.Name)
		}
		r.profile = *opts.Profile
	} else {
		r.profile = s.cfg.ProfileFor(query)
	}

	return r, nil
}

// ScoreAndRank runs the scoring stages over a candidate batch in the fixed
// order: off-topic filter, signal normalization, composite scoring, category
// penalty, date penalty, duplicate penalty, domain/article caps, final sort.
//
// Every surviving candidate has Scores populated and a non-nil PostFlags map.
// Empty input returns an empty slice and a zeroed summary, never an error;
// only misconfigured options fail.
func (s *Scorer) ScoreAndRank(ctx context.Context, candidates []Candidate, query string, opts Options) ([]Candidate, Summary, error) {
	r, err := s.resolve(opts, query)
	if err != nil {
		return nil, Summary{}, err
	}

	if len(candidates) == 0 {
		return []Candidate{}, Summary{}, nil
	}

	start := time.Now()
	summary := Summary{Input: len(candidates), Profile: r.profile.Name}
	metrics.CandidatesIn.WithLabelValues("score").Add(float64(len(candidates)))

	kept := s.filterOffTopic(candidates, r, &summary)
	scored := s.computeComposite(kept, r)
	scored = s.applyCategoryPenalties(scored, query, r, &summary)
	scored = s.applyDatePenalties(scored, r, &summary)

	sortByFinal(scored)
	scored = s.applyDuplicatePenalties(scored, &summary)

	if r.applyCaps {
		scored = s.applyCaps(scored, r, &summary)
	}

	sortByFinal(scored)
	summary.Returned = len(scored)

	metrics.CandidatesOut.WithLabelValues("score").Add(float64(len(scored)))
	metrics.StageDuration.WithLabelValues("score").Observe(time.Since(start).Seconds())

	s.logger.Debug().
		Str("profile", r.profile.Name).
		Int("input", summary.Input).
		Int("returned", summary.Returned).
		Int("offtopic_dropped", summary.OffTopicDropped).
		Int("cap_dropped", summary.CapDropped).
		Msg("batch scored")

	return scored, summary, nil
}

// filterOffTopic drops candidates whose raw similarity is strictly below the
// threshold. A candidate exactly at the threshold is kept.
func (s *Scorer) filterOffTopic(candidates []Candidate, r resolvedOptions, summary *Summary) []Candidate {
	if !r.filterOffTopic {
		out := make([]Candidate, len(candidates))
		for i, c := range candidates {
			out[i] = c.Clone()
		}
		return out
	}

	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity < r.minCosine {
			summary.OffTopicDropped++
			metrics.OffTopicDropped.Inc()
			s.logger.Debug().
				Str("id", c.ID).
				Float64("similarity", c.Similarity).
				Float64("threshold", r.minCosine).
				Msg("dropped off-topic candidate")
			continue
		}
		kept = append(kept, c.Clone())
	}
	return kept
}

// computeComposite normalizes the raw signals across the batch and computes
// the weighted composite score for every candidate.
func (s *Scorer) computeComposite(candidates []Candidate, r resolvedOptions) []Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	semMin, semMax := rawRange(candidates, func(c Candidate) float64 { return c.Similarity })
	ftsMin, ftsMax := rawRange(candidates, func(c Candidate) float64 { return c.FTSRank })

	weights := r.profile.Normalize()
	now := s.now()

	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		c.Scores.Semantic = minMax(c.Similarity, semMin, semMax)
		c.Scores.Lexical = minMax(c.FTSRank, ftsMin, ftsMax)
		c.Scores.Freshness = s.freshness(c.PublishedAt, r.profile.DecayTauHours, now)
		c.Scores.Source = s.cfg.Authority(c.Domain, c.SourceScore)

		c.Scores.Final = weights.Semantic*c.Scores.Semantic +
			weights.Lexical*c.Scores.Lexical +
			weights.Freshness*c.Scores.Freshness +
			weights.Source*c.Scores.Source

		if c.PostFlags == nil {
			c.PostFlags = make(map[string]PostFlag)
		}
		if c.PublishedAt == nil {
			c = c.flag(FlagMissingDate, "no publish date, freshness scored 0", 1.0)
		}
		out[i] = c
	}
	return out
}

// freshness computes exp(-age_hours / tau) clamped to [0, 1].
// A missing date yields 0; the date-penalty stage decides the consequence.
func (s *Scorer) freshness(publishedAt *time.Time, tauHours float64, now time.Time) float64 {
	if publishedAt == nil {
		return 0
	}
	ageHours := now.Sub(*publishedAt).Hours()
	if ageHours <= 0 {
		return 1
	}
	return clamp01(math.Exp(-ageHours / tauHours))
}

// applyCategoryPenalties suppresses topical collisions: candidates matching
// enough keywords of a category the query did not ask for are penalized.
func (s *Scorer) applyCategoryPenalties(candidates []Candidate, query string, r resolvedOptions, summary *Summary) []Candidate {
	if !r.applyCategoryPenalties || len(s.cfg.CategoryPenalties) == 0 {
		return candidates
	}

	q := " " + strings.Join(strings.Fields(strings.ToLower(query)), " ") + " "

	// Category names iterated in sorted order for deterministic flagging
	// when a candidate matches several categories.
	names := make([]string, 0, len(s.cfg.CategoryPenalties))
	for name := range s.cfg.CategoryPenalties {
		if !queryRequestsCategory(q, s.cfg.CategoryPenalties[name]) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		haystack := strings.ToLower(c.Title + " " + c.Text)
		for _, name := range names {
			cp := s.cfg.CategoryPenalties[name]
			if countKeywordMatches(haystack, cp.Keywords) < s.cfg.CategoryMinMatches {
				continue
			}
			c = c.penalize(FlagCategoryPenalty,
				fmt.Sprintf("matched %s keywords without %s intent in query", name, name),
				cp.Factor)
			summary.CategoryPenalized++
			metrics.PenaltiesApplied.WithLabelValues("category").Inc()
			break
		}
		out[i] = c
	}
	return out
}

// queryRequestsCategory reports whether the padded, normalized query mentions
// any of the category's trigger words; the penalty is skipped batch-wide when
// it does.
func queryRequestsCategory(paddedQuery string, cp CategoryPenalty) bool {
	for _, trigger := range cp.QueryTriggers {
		if strings.Contains(paddedQuery, " "+trigger) {
			return true
		}
	}
	return false
}

// countKeywordMatches counts how many of the keywords occur in the haystack.
func countKeywordMatches(haystack string, keywords []string) int {
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matches++
		}
	}
	return matches
}

// applyDatePenalties multiplies candidates lacking any usable publish date.
// News freshness cannot be claimed without evidence of recency.
func (s *Scorer) applyDatePenalties(candidates []Candidate, r resolvedOptions, summary *Summary) []Candidate {
	if !r.applyDatePenalties {
		return candidates
	}

	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		if c.PublishedAt == nil {
			c = c.penalize(FlagDatePenalty, "no publish date", s.cfg.DatePenaltyFactor)
			summary.DatePenalized++
			metrics.PenaltiesApplied.WithLabelValues("missing_date").Inc()
		}
		out[i] = c
	}
	return out
}

// applyDuplicatePenalties is a cheap batch-level pre-filter ahead of the full
// deduplication engine: the second occurrence of a normalized title or of an
// identical content hash is penalized. Candidates must already be sorted by
// score so the strongest occurrence keeps its full score.
func (s *Scorer) applyDuplicatePenalties(candidates []Candidate, summary *Summary) []Candidate {
	seenTitles := make(map[string]struct{}, len(candidates))
	seenContent := make(map[string]struct{}, len(candidates))

	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		titleKey := normalizeKey(c.Title)
		contentKey := c.ContentHash
		if contentKey == "" {
			contentKey = strconv.FormatUint(xxhash.Sum64String(normalizeKey(c.Title+" "+c.Text)), 16)
		}

		if _, dup := seenContent[contentKey]; dup {
			c = c.penalize(FlagDuplicateContent, "identical content hash already in batch", s.cfg.DuplicateContentFactor)
			summary.DuplicatePenalized++
			metrics.PenaltiesApplied.WithLabelValues("duplicate_content").Inc()
		} else if _, dup := seenTitles[titleKey]; dup && titleKey != "" {
			c = c.penalize(FlagDuplicateTitle, "normalized title already in batch", s.cfg.DuplicateTitleFactor)
			summary.DuplicatePenalized++
			metrics.PenaltiesApplied.WithLabelValues("duplicate_title").Inc()
		}

		seenTitles[titleKey] = struct{}{}
		seenContent[contentKey] = struct{}{}
		out[i] = c
	}
	return out
}

// applyCaps drops candidates beyond the per-domain / per-article caps,
// iterating in score order so the strongest candidates keep their slots.
// Drops are flagged and counted, never silent.
func (s *Scorer) applyCaps(candidates []Candidate, r resolvedOptions, summary *Summary) []Candidate {
	domainCount := make(map[string]int)
	articleCount := make(map[string]int)

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		domain := strings.ToLower(c.Domain)
		if domain != "" && domainCount[domain] >= r.maxPerDomain {
			summary.CapDropped++
			metrics.CapDropped.WithLabelValues("domain").Inc()
			s.logger.Debug().
				Str("id", c.ID).
				Str("domain", c.Domain).
				Int("cap", r.maxPerDomain).
				Msg("dropped candidate over domain cap")
			continue
		}
		if c.ArticleID != "" && articleCount[c.ArticleID] >= r.maxPerArticle {
			summary.CapDropped++
			metrics.CapDropped.WithLabelValues("article").Inc()
			s.logger.Debug().
				Str("id", c.ID).
				Str("article_id", c.ArticleID).
				Int("cap", r.maxPerArticle).
				Msg("dropped candidate over article cap")
			continue
		}

		domainCount[domain]++
		articleCount[c.ArticleID]++
		out = append(out, c)
	}
	return out
}

// sortByFinal stably sorts candidates by final score descending, preserving
// input order among ties for determinism.
func sortByFinal(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Scores.Final > candidates[j].Scores.Final
	})
}

// rawRange returns the min and max of a raw signal across the batch.
func rawRange(candidates []Candidate, get func(Candidate) float64) (minV, maxV float64) {
	minV, maxV = get(candidates[0]), get(candidates[0])
	for _, c := range candidates[1:] {
		v := get(c)
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}

// minMax normalizes v into [0, 1] across the batch range. A degenerate batch
// (all values equal) normalizes to the neutral midpoint 0.5.
func minMax(v, minV, maxV float64) float64 {
	if maxV == minV {
		return 0.5
	}
	return (v - minV) / (maxV - minV)
}

// normalizeKey lowercases and collapses whitespace for batch-level duplicate
// keys. Full normalization (URL/boilerplate stripping) belongs to the
// deduplication engine.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
