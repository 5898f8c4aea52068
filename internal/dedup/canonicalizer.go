// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/ranker"
)

// Config holds deduplication engine configuration.
type Config struct {
	// NumPermutations is the MinHash signature size.
	// Default: 128.
	NumPermutations int `json:"num_permutations" koanf:"num_permutations" validate:"gte=8"`

	// ShingleSize is the token n-gram size for signatures.
	// Default: 3.
	ShingleSize int `json:"shingle_size" koanf:"shingle_size" validate:"gte=1"`

	// Bands is the LSH band count. NumPermutations must be divisible by it;
	// more bands lower the collision threshold.
	// Default: 16 (with 128 permutations: ~0.71 collision threshold).
	Bands int `json:"bands" koanf:"bands" validate:"gte=1"`

	// JaccardThreshold is the shingle-set similarity at which two candidates
	// are considered near-duplicates.
	// Default: 0.8.
	JaccardThreshold float64 `json:"jaccard_threshold" koanf:"jaccard_threshold" validate:"gt=0,lte=1"`

	// TitleJaccardThreshold is the title token-set similarity short-circuit
	// used by the pairwise IsDuplicate predicate.
	// Default: 0.7.
	TitleJaccardThreshold float64 `json:"title_jaccard_threshold" koanf:"title_jaccard_threshold" validate:"gt=0,lte=1"`

	// StoreCapacity bounds the in-memory canonical-id map.
	// Default: 100000. Ignored when StorePath is set.
	StoreCapacity int `json:"store_capacity" koanf:"store_capacity"`

	// StorePath, when non-empty, persists the canonical-id map to a
	// badger database at this path so lookups survive restarts.
	StorePath string `json:"store_path,omitempty" koanf:"store_path"`

	// DomainPriority weights canonical selection per source domain; wire
	// services and major outlets rank highest. Unknown domains get
	// NeutralPriority.
	DomainPriority map[string]float64 `json:"domain_priority" koanf:"domain_priority"`

	// NeutralPriority is the canonical-selection weight for unknown domains.
	// Default: 5.
	NeutralPriority float64 `json:"neutral_priority" koanf:"neutral_priority"`
}

// DefaultConfig returns production defaults for the deduplication engine.
func DefaultConfig() Config {
	return Config{
		NumPermutations:       128,
		ShingleSize:           3,
		Bands:                 16,
		JaccardThreshold:      0.8,
		TitleJaccardThreshold: 0.7,
		StoreCapacity:         100000,
		DomainPriority: map[string]float64{
			"reuters.com":        10,
			"apnews.com":         10,
			"afp.com":            10,
			"bbc.com":            9,
			"bbc.co.uk":          9,
			"nytimes.com":        8,
			"washingtonpost.com": 8,
			"wsj.com":            8,
			"theguardian.com":    8,
			"bloomberg.com":      8,
			"npr.org":            7,
			"cnn.com":            6,
			"aljazeera.com":      6,
		},
		NeutralPriority: 5,
	}
}

// Validate checks the configuration for systemic errors.
func (c Config) Validate() error {
	if c.NumPermutations < 8 {
		return fmt.Errorf("num_permutations must be at least 8, got %d", c.NumPermutations)
	}
	if c.ShingleSize < 1 {
		return fmt.Errorf("shingle_size must be positive, got %d", c.ShingleSize)
	}
	if c.Bands < 1 || c.Bands > c.NumPermutations {
		return fmt.Errorf("bands must be in [1, num_permutations], got %d", c.Bands)
	}
	if c.JaccardThreshold <= 0 || c.JaccardThreshold > 1 {
		return fmt.Errorf("jaccard_threshold must be in (0, 1], got %f", c.JaccardThreshold)
	}
	if c.TitleJaccardThreshold <= 0 || c.TitleJaccardThreshold > 1 {
		return fmt.Errorf("title_jaccard_threshold must be in (0, 1], got %f", c.TitleJaccardThreshold)
	}
	return nil
}

// Canonicalizer groups near-duplicate candidates and selects one canonical
// representative per group. The signature index and the id -> canonical-id
// map are long-lived and shared across every query processed by the owning
// service; inserts are serialized behind one coarse lock while the pure
// similarity math runs outside it.
//
// Construct isolated instances in tests; production code injects one shared
// instance into the service.
type Canonicalizer struct {
	cfg    Config
	logger zerolog.Logger
	hasher *minHasher

	mu    sync.Mutex
	index *lshIndex

	store Store
	// ownStore is true when the canonicalizer created the store and is
	// responsible for closing it.
	ownStore bool

	// now is injectable for deterministic age-bonus tests.
	now func() time.Time
}

// NewCanonicalizer creates a deduplication engine with the given
// configuration. When store is nil, one is created from the config: a
// badger-backed store if StorePath is set, an in-memory LRU otherwise.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCanonicalizer(cfg Config, store Store, logger zerolog.Logger) (*Canonicalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}

	c := &Canonicalizer{
		cfg:    cfg,
		logger: logger.With().Str("component", "dedup").Logger(),
		hasher: newMinHasher(cfg.NumPermutations),
		index:  newLSHIndex(cfg.NumPermutations, cfg.Bands),
		store:  store,
		now:    time.Now,
	}

	if c.store == nil {
		c.ownStore = true
		if cfg.StorePath != "" {
			bs, err := OpenBadgerStore(cfg.StorePath, logger)
			if err != nil {
				return nil, err
			}
			c.store = bs
		} else {
			c.store = NewMemoryStore(cfg.StoreCapacity)
		}
	}

	return c, nil
}

// Close releases the canonical-id store if the canonicalizer owns it.
func (c *Canonicalizer) Close() error {
	if c.ownStore {
		return c.store.Close()
	}
	return nil
}

// Canonicalize groups near-duplicate candidates and returns one record per
// group: the canonical one, annotated with its alternatives. Group members
// are excluded from the returned collection, not deleted anywhere else.
//
// Grouping is transitive-closure safe: if A is near B and B is near C, all
// three form one group even when A and C alone would not meet the threshold.
// Empty input returns an empty slice. Candidates with empty bodies are
// hashed on title alone and never fail the grouping step.
func (c *Canonicalizer) Canonicalize(ctx context.Context, candidates []ranker.Candidate) []ranker.Candidate {
	if len(candidates) == 0 {
		return []ranker.Candidate{}
	}

	start := time.Now()
	metrics.CandidatesIn.WithLabelValues("dedup").Add(float64(len(candidates)))

	prepared := make([]ranker.Candidate, len(candidates))
	sigs := make([]Signature, len(candidates))
	for i, cand := range candidates {
		prepared[i] = cand.Clone()
		normalized := NormalizeText(cand.Title + " " + cand.Text)
		prepared[i].ContentHash = contentHash(normalized)
		sigs[i] = c.hasher.Signature(Shingles(Tokenize(normalized), c.cfg.ShingleSize))
	}

	groups := c.groupCandidates(prepared, sigs)

	out := make([]ranker.Candidate, 0, len(groups))
	for _, group := range groups {
		out = append(out, c.selectCanonical(prepared, group))
	}

	// Preserve input order of the canonical representatives; the rank
	// finalizer re-sorts by score downstream.
	sort.SliceStable(out, func(i, j int) bool {
		return indexOf(prepared, out[i].ID) < indexOf(prepared, out[j].ID)
	})

	metrics.CandidatesOut.WithLabelValues("dedup").Add(float64(len(out)))
	metrics.StageDuration.WithLabelValues("dedup").Observe(time.Since(start).Seconds())

	c.logger.Debug().
		Int("input", len(candidates)).
		Int("canonical", len(out)).
		Msg("batch canonicalized")

	return out
}

// groupCandidates unions batch candidates into near-duplicate groups via
// exact content-hash matches and LSH index hits, then returns the groups as
// slices of batch indices in input order.
func (c *Canonicalizer) groupCandidates(candidates []ranker.Candidate, sigs []Signature) [][]int {
	uf := newUnionFind(len(candidates))
	batchIndex := make(map[string]int, len(candidates))
	for i, cand := range candidates {
		batchIndex[cand.ID] = i
	}

	// Exact-duplicate fast path: identical content hashes.
	byHash := make(map[string]int, len(candidates))
	for i, cand := range candidates {
		if first, ok := byHash[cand.ContentHash]; ok {
			uf.union(first, i)
			continue
		}
		byHash[cand.ContentHash] = i
	}

	// Near-duplicate discovery through the shared index. Inserts mutate the
	// index, so the whole seed+query pass holds the coarse lock.
	c.mu.Lock()
	for i, cand := range candidates {
		if len(sigs[i]) == 0 {
			continue
		}
		for _, hitID := range c.index.Query(sigs[i], c.cfg.JaccardThreshold) {
			if hitID == cand.ID {
				continue
			}
			if j, inBatch := batchIndex[hitID]; inBatch {
				uf.union(i, j)
			}
		}
		c.index.Add(cand.ID, sigs[i])
	}
	indexSize := c.index.Size()
	c.mu.Unlock()

	metrics.DedupIndexSize.Set(float64(indexSize))

	return uf.groups()
}

// selectCanonical picks the group's representative and annotates it.
//
// A group of size 1 short-circuits: the candidate is marked canonical and
// keeps whatever alternatives it already carries, so re-canonicalizing an
// already-canonical batch returns it unchanged.
func (c *Canonicalizer) selectCanonical(candidates []ranker.Candidate, group []int) ranker.Candidate {
	if len(group) == 1 {
		winner := candidates[group[0]]
		winner.IsCanonical = true
		c.store.Set(winner.ID, winner.ID)
		return winner
	}

	best := group[0]
	bestScore := c.priorityScore(candidates[group[0]])
	for _, idx := range group[1:] {
		score := c.priorityScore(candidates[idx])
		// Strict greater-than keeps the earliest input on ties.
		if score > bestScore {
			best, bestScore = idx, score
		}
	}

	winner := candidates[best]
	winner.IsCanonical = true
	winner.AlternativeIDs = make([]string, 0, len(group)-1)
	for _, idx := range group {
		if idx == best {
			continue
		}
		winner.AlternativeIDs = append(winner.AlternativeIDs, candidates[idx].ID)
		c.store.Set(candidates[idx].ID, winner.ID)
	}
	winner.AlternativesCount = len(winner.AlternativeIDs)
	c.store.Set(winner.ID, winner.ID)

	metrics.DedupGroups.Inc()
	metrics.DedupAlternatives.Add(float64(winner.AlternativesCount))

	c.logger.Debug().
		Str("canonical_id", winner.ID).
		Str("domain", winner.Domain).
		Int("alternatives", winner.AlternativesCount).
		Msg("near-duplicate group resolved")

	return winner
}

// priorityScore ranks group members for canonical selection: domain
// authority, an age bonus favoring the earliest publisher (up to +5 at five
// days), a content-length bonus (up to +3, saturating past ~3000 chars), and
// +1 for titles in a clean length band.
func (c *Canonicalizer) priorityScore(cand ranker.Candidate) float64 {
	score := c.cfg.NeutralPriority
	if p, ok := c.cfg.DomainPriority[cand.Domain]; ok {
		score = p
	}

	if cand.PublishedAt != nil {
		ageDays := c.now().Sub(*cand.PublishedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		if ageDays > 5 {
			ageDays = 5
		}
		score += ageDays
	}

	length := float64(len(cand.Text))
	if length > 3000 {
		length = 3000
	}
	score += 3 * length / 3000

	if titleLen := len(cand.Title); titleLen >= 20 && titleLen <= 150 {
		score++
	}

	return score
}

// IsDuplicate is the pairwise near-duplicate predicate, usable outside batch
// grouping. It short-circuits in order: exact content-hash equality, title
// token Jaccard, then full shingle-set Jaccard.
func (c *Canonicalizer) IsDuplicate(a, b ranker.Candidate) bool {
	hashA := a.ContentHash
	if hashA == "" {
		hashA = contentHash(NormalizeText(a.Title + " " + a.Text))
	}
	hashB := b.ContentHash
	if hashB == "" {
		hashB = contentHash(NormalizeText(b.Title + " " + b.Text))
	}
	if hashA == hashB {
		return true
	}

	if TokenJaccard(a.Title, b.Title) >= c.cfg.TitleJaccardThreshold {
		return true
	}

	return ShingleJaccard(a.Title+" "+a.Text, b.Title+" "+b.Text, c.cfg.ShingleSize) >= c.cfg.JaccardThreshold
}

// GetCanonicalID returns the canonical id recorded for id in any earlier
// canonicalization call.
func (c *Canonicalizer) GetCanonicalID(id string) (string, bool) {
	return c.store.Get(id)
}

// contentHash returns the hex SHA-256 of the normalized text.
func contentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// indexOf returns the batch position of the candidate with the given id.
func indexOf(candidates []ranker.Candidate, id string) int {
	for i, c := range candidates {
		if c.ID == id {
			return i
		}
	}
	return len(candidates)
}
