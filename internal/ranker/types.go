// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ranker

import (
	"time"
)

// Candidate is one retrieved unit (article or sub-chunk) flowing through the
// ranking pipeline. Raw signal fields are populated by the upstream retrieval
// layer; derived fields are written by pipeline stages and never by callers.
type Candidate struct {
	// ID is the chunk/row identity of the retrieved unit.
	ID string `json:"id"`

	// ArticleID is the owning article, used for per-article capping.
	ArticleID string `json:"article_id"`

	// URL is the source URL of the article.
	URL string `json:"url,omitempty"`

	// Domain is the source domain, used as the authority lookup key.
	Domain string `json:"domain"`

	// Title is the article title.
	Title string `json:"title"`

	// Text is the snippet or body text, used for hashing and keyword scanning.
	Text string `json:"text"`

	// PublishedAt is the publication timestamp. Absence triggers the
	// missing-date penalty, never an error.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Similarity is the raw vector-retrieval cosine score in [0, 1].
	Similarity float64 `json:"similarity"`

	// FTSRank is the raw lexical-retrieval rank score. It is unbounded and
	// normalized per batch.
	FTSRank float64 `json:"fts_rank"`

	// SourceScore is an optional precomputed authority override in [0, 1].
	// When nil, the static authority table (or a neutral default) is used.
	SourceScore *float64 `json:"source_score,omitempty"`

	// Embedding is the optional dense vector for this candidate, used by the
	// diversifier's semantic similarity term. May be nil.
	Embedding []float64 `json:"-"`

	// Scores is the per-signal score breakdown, populated by the scorer.
	Scores Scores `json:"scores"`

	// PostFlags records every penalty or flag applied to this candidate,
	// keyed by flag name. Possibly empty, never nil after scoring.
	PostFlags map[string]PostFlag `json:"postflags"`

	// ContentHash is the stable hash of the normalized title+body,
	// populated by the deduplication engine.
	ContentHash string `json:"content_hash,omitempty"`

	// IsCanonical marks the chosen representative of a near-duplicate group.
	IsCanonical bool `json:"is_canonical,omitempty"`

	// AlternativesCount is the number of near-duplicate group members folded
	// into this canonical record. Always equals len(AlternativeIDs).
	AlternativesCount int `json:"alternatives_count,omitempty"`

	// AlternativeIDs lists the IDs of the group members this canonical
	// record references. The members are excluded from the response, not
	// destroyed elsewhere.
	AlternativeIDs []string `json:"alternative_ids,omitempty"`
}

// Scores is the per-signal score breakdown for a candidate.
// All component scores are in [0, 1]; Final is non-negative and may exceed 1
// only transiently before penalty normalization.
type Scores struct {
	// Semantic is the min-max normalized vector similarity.
	Semantic float64 `json:"semantic"`

	// Lexical is the min-max normalized full-text rank.
	Lexical float64 `json:"fts"`

	// Freshness is the exponential time-decay score.
	Freshness float64 `json:"freshness"`

	// Source is the domain authority score.
	Source float64 `json:"source"`

	// Final is the weighted composite after penalty adjustments.
	Final float64 `json:"final"`
}

// PostFlag records one penalty or drop marker with a human-readable reason
// and the multiplicative factor applied (1.0 for non-penalty flags).
type PostFlag struct {
	// Reason is the human-readable explanation for the flag.
	Reason string `json:"reason"`

	// Factor is the multiplicative score adjustment applied (1.0 = none).
	Factor float64 `json:"factor"`
}

// Flag keys written by the pipeline stages.
const (
	FlagOffTopic         = "offtopic"
	FlagCategoryPenalty  = "category_penalty"
	FlagDatePenalty      = "date_penalty"
	FlagDuplicateTitle   = "duplicate_title"
	FlagDuplicateContent = "duplicate_content"
	FlagDomainCap        = "domain_cap"
	FlagArticleCap       = "article_cap"
	FlagMissingDate      = "missing_date"
)

// Options controls which optional pipeline stages run for a single call.
// The zero value is not useful; start from DefaultOptions.
type Options struct {
	// FilterOffTopic drops candidates below the minimum cosine threshold.
	FilterOffTopic bool `json:"filter_offtopic"`

	// ApplyCategoryPenalties enables topical-collision suppression.
	ApplyCategoryPenalties bool `json:"apply_category_penalties"`

	// ApplyDatePenalties enables the missing-date penalty.
	// nil means "use the configured default".
	ApplyDatePenalties *bool `json:"apply_date_penalties,omitempty"`

	// ApplyCaps enables domain/article capping during scoring.
	ApplyCaps bool `json:"apply_caps"`

	// MinCosine overrides the configured off-topic threshold when non-nil.
	MinCosine *float64 `json:"min_cosine,omitempty"`

	// MaxPerDomain is the hard per-domain result cap. Zero means use the
	// configured default.
	MaxPerDomain int `json:"max_per_domain,omitempty"`

	// MaxPerArticle is the hard per-article result cap. Zero means use the
	// configured default.
	MaxPerArticle int `json:"max_per_article,omitempty"`

	// LambdaParam is the MMR relevance/diversity trade-off in [0, 1].
	// Zero means use the configured default.
	LambdaParam float64 `json:"lambda_param,omitempty"`

	// EnsureDomainDiversity enables the diversifier's per-domain cap pass.
	EnsureDomainDiversity bool `json:"ensure_domain_diversity"`

	// EnsureTemporalDiversity drops candidates published within
	// MinTimeGapHours of an already-kept candidate.
	EnsureTemporalDiversity bool `json:"ensure_temporal_diversity"`

	// MinTimeGapHours is the minimum publication gap for the temporal
	// diversity pass. Zero means use the configured default.
	MinTimeGapHours int `json:"min_time_gap_hours,omitempty"`

	// Profile overrides the configured weight profile for this call.
	// When nil, the profile is selected from the query (news vs. evergreen).
	Profile *WeightProfile `json:"profile,omitempty"`
}

// DefaultOptions returns the options used when the caller passes none:
// all optional stages enabled, every threshold at its configured default.
func DefaultOptions() Options {
	return Options{
		FilterOffTopic:         true,
		ApplyCategoryPenalties: true,
		ApplyCaps:              true,
		EnsureDomainDiversity:  true,
	}
}

// Summary reports per-stage drop and penalty counts for one scoring call.
// It exists for observability; an empty input yields a zeroed summary.
type Summary struct {
	// Input is the number of candidates entering the scorer.
	Input int `json:"input"`

	// Returned is the number of candidates surviving all stages.
	Returned int `json:"returned"`

	// OffTopicDropped is the number dropped below the cosine threshold.
	OffTopicDropped int `json:"offtopic_dropped"`

	// CategoryPenalized is the number penalized for topical collisions.
	CategoryPenalized int `json:"category_penalized"`

	// DatePenalized is the number penalized for a missing publish date.
	DatePenalized int `json:"date_penalized"`

	// DuplicatePenalized is the number penalized as batch-level title or
	// content-hash duplicates.
	DuplicatePenalized int `json:"duplicate_penalized"`

	// CapDropped is the number dropped by domain/article caps.
	CapDropped int `json:"cap_dropped"`

	// Profile is the weight profile used ("news" or "evergreen").
	Profile string `json:"profile"`
}

// Clone returns a deep copy of the candidate. Pipeline stages operate on
// copies so no stage mutates its input collection.
func (c Candidate) Clone() Candidate {
	out := c
	if c.PostFlags != nil {
		out.PostFlags = make(map[string]PostFlag, len(c.PostFlags))
		for k, v := range c.PostFlags {
			out.PostFlags[k] = v
		}
	}
	if c.AlternativeIDs != nil {
		out.AlternativeIDs = append([]string(nil), c.AlternativeIDs...)
	}
	if c.Embedding != nil {
		out.Embedding = append([]float64(nil), c.Embedding...)
	}
	if c.SourceScore != nil {
		v := *c.SourceScore
		out.SourceScore = &v
	}
	if c.PublishedAt != nil {
		t := *c.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

// flag returns a copy of the candidate with the given flag recorded.
// The flags map is copied, never mutated in place.
func (c Candidate) flag(key, reason string, factor float64) Candidate {
	out := c.Clone()
	if out.PostFlags == nil {
		out.PostFlags = make(map[string]PostFlag, 1)
	}
	out.PostFlags[key] = PostFlag{Reason: reason, Factor: factor}
	return out
}
