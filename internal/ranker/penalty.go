// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ranker

// Penalty stages are pure folds: each takes a candidate and returns a new
// candidate with an adjusted final score and an accumulated flag. No stage
// mutates a shared flags map, so penalty application is order-independent
// apart from the documented stage sequence.

// penalize returns a copy of the candidate with Scores.Final multiplied by
// factor and the flag recorded under key.
func (c Candidate) penalize(key, reason string, factor float64) Candidate {
	out := c.flag(key, reason, factor)
	out.Scores.Final *= factor
	return out
}
