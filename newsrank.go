// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package newsrank

import (
	"github.com/tomtom215/newsrank/internal/diversity"
	"github.com/tomtom215/newsrank/internal/ranker"
)

// Candidate is one retrieved unit flowing through the pipeline. Raw signal
// fields come from the caller's retrieval layer; derived fields (scores,
// flags, canonical annotations) are written by the pipeline.
type Candidate = ranker.Candidate

// Scores is the per-signal score breakdown attached to every surviving
// candidate.
type Scores = ranker.Scores

// PostFlag records one penalty or drop marker with its reason and factor.
type PostFlag = ranker.PostFlag

// Options controls the optional pipeline stages for a single call.
type Options = ranker.Options

// Summary reports per-stage drop and penalty counts for one scoring call.
type Summary = ranker.Summary

// WeightProfile is a runtime-tunable set of signal weights and a freshness
// decay constant.
type WeightProfile = ranker.WeightProfile

// DiversityReport summarizes domain spread, temporal span, and pairwise
// similarity of a final result page.
type DiversityReport = diversity.Report

// DefaultOptions returns the options used when the caller passes none:
// all optional stages enabled, every threshold at its configured default.
func DefaultOptions() Options {
	return ranker.DefaultOptions()
}
