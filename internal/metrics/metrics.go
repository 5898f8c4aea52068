// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the ranking pipeline:
// - per-stage latency and throughput
// - drop and penalty counters by reason
// - deduplication group statistics

var (
	// StageDuration tracks per-stage pipeline latency.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsrank_stage_duration_seconds",
			Help:    "Duration of ranking pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "score", "dedup", "diversify"
	)

	// CandidatesIn counts candidates entering a stage.
	CandidatesIn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrank_candidates_in_total",
			Help: "Total number of candidates entering a pipeline stage",
		},
		[]string{"stage"},
	)

	// CandidatesOut counts candidates surviving a stage.
	CandidatesOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrank_candidates_out_total",
			Help: "Total number of candidates surviving a pipeline stage",
		},
		[]string{"stage"},
	)

	// OffTopicDropped counts candidates dropped by the off-topic filter.
	OffTopicDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsrank_offtopic_dropped_total",
			Help: "Total number of candidates dropped below the minimum cosine threshold",
		},
	)

	// PenaltiesApplied counts multiplicative penalties by kind.
	PenaltiesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrank_penalties_total",
			Help: "Total number of score penalties applied",
		},
		[]string{"kind"}, // "category", "missing_date", "duplicate_title", "duplicate_content"
	)

	// CapDropped counts candidates dropped by hard caps.
	CapDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsrank_cap_dropped_total",
			Help: "Total number of candidates dropped by domain/article caps",
		},
		[]string{"kind"}, // "domain", "article", "domain_diversity", "temporal_diversity"
	)

	// DedupGroups counts near-duplicate groups formed.
	DedupGroups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsrank_dedup_groups_total",
			Help: "Total number of near-duplicate groups with more than one member",
		},
	)

	// DedupAlternatives counts candidates folded into a canonical record.
	DedupAlternatives = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsrank_dedup_alternatives_total",
			Help: "Total number of candidates folded into canonical records as alternatives",
		},
	)

	// DedupIndexSize reports the number of signatures held by the shared index.
	DedupIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsrank_dedup_index_size",
			Help: "Current number of signatures in the shared similarity index",
		},
	)
)
