// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package newsrank

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/dedup"
	"github.com/tomtom215/newsrank/internal/diversity"
	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/ranker"
)

// Service is the long-lived pipeline instance. It owns the scorer, the
// deduplication engine (with its process-wide signature index), and the
// diversifier. One Service serves all queries; per-call state never leaks
// between invocations, so concurrent calls are safe.
type Service struct {
	cfg         config.Config
	logger      zerolog.Logger
	scorer      *ranker.Scorer
	canon       *dedup.Canonicalizer
	diversifier *diversity.Diversifier
}

// ServiceOption customizes Service construction.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	store dedup.Store
}

// WithCanonicalStore injects a canonical-id store, replacing the one the
// configuration would create. Useful for tests and for sharing one store
// across services.
func WithCanonicalStore(store dedup.Store) ServiceOption {
	return func(o *serviceOptions) { o.store = store }
}

// New creates a pipeline service from a validated configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg config.Config, logger zerolog.Logger, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var so serviceOptions
	for _, opt := range opts {
		opt(&so)
	}

	rankerCfg := cfg.Ranker
	scorer, err := ranker.NewScorer(&rankerCfg, logger)
	if err != nil {
		return nil, err
	}

	canon, err := dedup.NewCanonicalizer(cfg.Dedup, so.store, logger)
	if err != nil {
		return nil, err
	}

	diversifier, err := diversity.NewDiversifier(cfg.Diversity, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:         cfg,
		logger:      logger.With().Str("component", "pipeline").Logger(),
		scorer:      scorer,
		canon:       canon,
		diversifier: diversifier,
	}, nil
}

// NewFromConfigFile loads the configuration tree (compiled defaults, an
// optional YAML file, NEWSRANK_ environment overrides), initializes the
// process logger from its logging section, and builds a Service. An empty
// path skips the file layer.
func NewFromConfigFile(path string, opts ...ServiceOption) (*Service, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	return New(cfg, logging.Logger(), opts...)
}

// Close releases resources held by the pipeline, notably a disk-backed
// canonical-id store.
func (s *Service) Close() error {
	return s.canon.Close()
}

// ScoreAndRank computes the weighted composite score for every candidate
// and returns the batch sorted descending by final score, together with the
// per-stage summary.
func (s *Service) ScoreAndRank(ctx context.Context, candidates []Candidate, query string, opts Options) ([]Candidate, Summary, error) {
	return s.scorer.ScoreAndRank(ctx, candidates, query, opts)
}

// CanonicalizeArticles collapses near-duplicate candidates to one canonical
// record per story, annotated with the folded alternatives.
func (s *Service) CanonicalizeArticles(ctx context.Context, candidates []Candidate) []Candidate {
	return s.canon.Canonicalize(ctx, candidates)
}

// GetCanonicalID returns the canonical id recorded for a candidate id in
// any earlier canonicalization call on this service.
func (s *Service) GetCanonicalID(id string) (string, bool) {
	return s.canon.GetCanonicalID(id)
}

// DiversifyResults re-ranks canonical candidates by maximal marginal
// relevance, trading relevance against redundancy, and applies the optional
// diversity passes.
func (s *Service) DiversifyResults(ctx context.Context, candidates []Candidate, maxResults int, opts Options) ([]Candidate, error) {
	return s.diversifier.Diversify(ctx, candidates, maxResults, diversityOptions(opts))
}

// AnalyzeDiversity reports domain spread, temporal span, and pairwise
// similarity of a final result page. Observability only.
func (s *Service) AnalyzeDiversity(results []Candidate) DiversityReport {
	return s.diversifier.AnalyzeDiversity(results)
}

// Result is the output of a full pipeline run.
type Result struct {
	// TraceID correlates this run's log lines.
	TraceID string `json:"trace_id"`

	// Results is the final ranked, deduplicated, diversified page.
	Results []Candidate `json:"results"`

	// Summary is the scorer's per-stage accounting.
	Summary Summary `json:"summary"`

	// Duration is the total pipeline wall time.
	Duration time.Duration `json:"duration_ns"`
}

// JSON serializes the result, including every candidate's score breakdown
// and flags, for API responses or audit logs.
func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// Rank runs the full pipeline: filter and score, canonicalize, diversify,
// then a final sort and truncation to maxResults. This is the operation the
// search surface calls once per query.
func (s *Service) Rank(ctx context.Context, candidates []Candidate, query string, maxResults int, opts Options) (Result, error) {
	if maxResults < 1 {
		return Result{}, fmt.Errorf("max_results must be positive, got %d", maxResults)
	}

	traceID := uuid.NewString()
	logger := s.logger.With().Str("trace_id", traceID).Logger()
	start := time.Now()

	scored, summary, err := s.scorer.ScoreAndRank(ctx, candidates, query, opts)
	if err != nil {
		return Result{}, err
	}

	canonical := s.canon.Canonicalize(ctx, scored)

	diversified, err := s.diversifier.Diversify(ctx, canonical, maxResults, diversityOptions(opts))
	if err != nil {
		return Result{}, err
	}

	// Finalize: the diversity passes can reorder and drop, so re-sort by
	// score and truncate for the response page.
	sort.SliceStable(diversified, func(i, j int) bool {
		return diversified[i].Scores.Final > diversified[j].Scores.Final
	})
	if len(diversified) > maxResults {
		diversified = diversified[:maxResults]
	}

	summary.Returned = len(diversified)
	result := Result{
		TraceID:  traceID,
		Results:  diversified,
		Summary:  summary,
		Duration: time.Since(start),
	}

	if breakdown, err := json.Marshal(summary); err == nil {
		logger.Debug().RawJSON("summary", breakdown).Msg("pipeline summary")
	}
	logger.Info().
		Str("query", query).
		Int("input", len(candidates)).
		Int("returned", len(diversified)).
		Dur("duration", result.Duration).
		Msg("pipeline run complete")

	return result, nil
}

// diversityOptions maps the caller-facing options onto the diversifier's.
func diversityOptions(opts Options) diversity.Options {
	out := diversity.Options{
		MaxPerDomain:            opts.MaxPerDomain,
		EnsureDomainDiversity:   opts.EnsureDomainDiversity,
		EnsureTemporalDiversity: opts.EnsureTemporalDiversity,
		MinTimeGapHours:         float64(opts.MinTimeGapHours),
	}
	if opts.LambdaParam != 0 {
		lambda := opts.LambdaParam
		out.Lambda = &lambda
	}
	return out
}
