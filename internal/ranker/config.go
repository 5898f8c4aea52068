// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ranker

import (
	"fmt"
	"strings"
)

// WeightProfile defines the signal weights and freshness decay for one query
// intent. Weights do not need to sum to 1.0; they are normalized at runtime.
type WeightProfile struct {
	// Name identifies the profile in summaries and logs.
	Name string `json:"name" koanf:"name"`

	// Semantic is the weight of the normalized vector-similarity signal.
	Semantic float64 `json:"semantic" koanf:"semantic" validate:"gte=0"`

	// Lexical is the weight of the normalized full-text rank signal.
	Lexical float64 `json:"lexical" koanf:"lexical" validate:"gte=0"`

	// Freshness is the weight of the time-decay signal.
	Freshness float64 `json:"freshness" koanf:"freshness" validate:"gte=0"`

	// Source is the weight of the domain-authority signal.
	Source float64 `json:"source" koanf:"source" validate:"gte=0"`

	// DecayTauHours is the exponential decay time constant in hours:
	// freshness = exp(-age_hours / tau).
	DecayTauHours float64 `json:"decay_tau_hours" koanf:"decay_tau_hours" validate:"gt=0"`
}

// Normalize returns a copy with weights scaled to sum to 1.0.
// All-zero weights normalize to equal weights.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (p WeightProfile) Normalize() WeightProfile {
	sum := p.Semantic + p.Lexical + p.Freshness + p.Source
	if sum == 0 {
		const equalWeight = 0.25
		p.Semantic, p.Lexical, p.Freshness, p.Source = equalWeight, equalWeight, equalWeight, equalWeight
		return p
	}
	p.Semantic /= sum
	p.Lexical /= sum
	p.Freshness /= sum
	p.Source /= sum
	return p
}

// CategoryPenalty suppresses a topical collision: when a query does not ask
// for the category but a candidate matches at least MinMatches of its
// keywords, the final score is multiplied by Factor.
type CategoryPenalty struct {
	// Keywords are the category-specific trigger words scanned in the
	// candidate's title and snippet.
	Keywords []string `json:"keywords" koanf:"keywords"`

	// QueryTriggers mark the query as requesting this category, which
	// disables the penalty for the whole batch.
	QueryTriggers []string `json:"query_triggers" koanf:"query_triggers"`

	// Factor is the multiplicative penalty in (0, 1].
	Factor float64 `json:"factor" koanf:"factor" validate:"gt=0,lte=1"`
}

// Config holds all scorer configuration. It is immutable once handed to a
// Scorer; runtime tuning goes through a fresh Config (see config.Manager).
type Config struct {
	// NewsProfile is the default weight profile for breaking-news queries.
	NewsProfile WeightProfile `json:"news_profile" koanf:"news_profile"`

	// EvergreenProfile is used for explanatory/analytical queries, where
	// freshness matters far less.
	EvergreenProfile WeightProfile `json:"evergreen_profile" koanf:"evergreen_profile"`

	// EvergreenTriggers are the query phrases that select the evergreen
	// profile.
	EvergreenTriggers []string `json:"evergreen_triggers" koanf:"evergreen_triggers"`

	// MinCosine is the off-topic threshold: candidates with raw similarity
	// strictly below it are dropped. Boundary values are kept.
	MinCosine float64 `json:"min_cosine" koanf:"min_cosine" validate:"gte=0,lte=1"`

	// ApplyDatePenalties is the default for Options.ApplyDatePenalties.
	ApplyDatePenalties bool `json:"apply_date_penalties" koanf:"apply_date_penalties"`

	// DatePenaltyFactor multiplies the final score of candidates lacking a
	// usable publish date.
	DatePenaltyFactor float64 `json:"date_penalty_factor" koanf:"date_penalty_factor" validate:"gt=0,lte=1"`

	// DuplicateTitleFactor multiplies the second and later occurrences of a
	// normalized title within one batch.
	DuplicateTitleFactor float64 `json:"duplicate_title_factor" koanf:"duplicate_title_factor" validate:"gt=0,lte=1"`

	// DuplicateContentFactor multiplies the second and later occurrences of
	// an identical content hash within one batch.
	DuplicateContentFactor float64 `json:"duplicate_content_factor" koanf:"duplicate_content_factor" validate:"gt=0,lte=1"`

	// CategoryPenalties maps category name to its penalty rule.
	CategoryPenalties map[string]CategoryPenalty `json:"category_penalties" koanf:"category_penalties"`

	// CategoryMinMatches is how many category keywords a candidate must
	// match before the penalty applies.
	CategoryMinMatches int `json:"category_min_matches" koanf:"category_min_matches" validate:"gte=1"`

	// MaxPerDomain is the default hard per-domain cap.
	MaxPerDomain int `json:"max_per_domain" koanf:"max_per_domain" validate:"gte=1"`

	// MaxPerArticle is the default hard per-article cap.
	MaxPerArticle int `json:"max_per_article" koanf:"max_per_article" validate:"gte=1"`

	// SourceAuthority maps well-known domains to authority scores in [0, 1].
	SourceAuthority map[string]float64 `json:"source_authority" koanf:"source_authority"`

	// NeutralAuthority is the authority score for unknown domains.
	NeutralAuthority float64 `json:"neutral_authority" koanf:"neutral_authority" validate:"gte=0,lte=1"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		NewsProfile: WeightProfile{
			Name:          "news",
			Semantic:      0.45,
			Lexical:       0.30,
			Freshness:     0.20,
			Source:        0.05,
			DecayTauHours: 72,
		},
		EvergreenProfile: WeightProfile{
			Name:          "evergreen",
			Semantic:      0.60,
			Lexical:       0.25,
			Freshness:     0.05,
			Source:        0.10,
			DecayTauHours: 240,
		},
		EvergreenTriggers: []string{
			"how", "how to", "why", "explainer", "explained",
			"guide", "analysis", "what is", "what are", "history of",
		},
		MinCosine:              0.28,
		ApplyDatePenalties:     true,
		DatePenaltyFactor:      0.3,
		DuplicateTitleFactor:   0.8,
		DuplicateContentFactor: 0.6,
		CategoryMinMatches:     2,
		CategoryPenalties: map[string]CategoryPenalty{
			"sports": {
				Keywords: []string{
					"game", "match", "score", "playoff", "season", "league",
					"team", "coach", "tournament", "championship", "nhl",
					"nba", "nfl", "mlb", "goal", "touchdown", "inning",
				},
				QueryTriggers: []string{
					"sport", "game", "match", "score", "team", "league",
					"playoff", "nhl", "nba", "nfl", "mlb",
				},
				Factor: 0.5,
			},
			"entertainment": {
				Keywords: []string{
					"celebrity", "movie", "film", "album", "premiere",
					"box office", "trailer", "actor", "actress", "singer",
					"concert", "red carpet", "streaming series",
				},
				QueryTriggers: []string{
					"movie", "film", "celebrity", "album", "actor",
					"entertainment", "music", "tv show",
				},
				Factor: 0.6,
			},
			"crime": {
				Keywords: []string{
					"arrested", "charged", "police said", "suspect",
					"shooting", "homicide", "robbery", "stabbing",
					"sentenced", "indicted", "custody",
				},
				QueryTriggers: []string{
					"crime", "arrest", "police", "shooting", "murder",
					"court", "trial",
				},
				Factor: 0.8,
			},
			"weather": {
				Keywords: []string{
					"forecast", "temperatures", "rainfall", "snowfall",
					"storm warning", "heat wave", "cold front", "humidity",
					"gusts", "advisory",
				},
				QueryTriggers: []string{
					"weather", "forecast", "storm", "temperature",
					"hurricane", "snow",
				},
				Factor: 0.7,
			},
		},
		MaxPerDomain:  3,
		MaxPerArticle: 2,
		SourceAuthority: map[string]float64{
			"reuters.com":        0.95,
			"apnews.com":         0.95,
			"afp.com":            0.90,
			"bbc.com":            0.90,
			"bbc.co.uk":          0.90,
			"nytimes.com":        0.85,
			"washingtonpost.com": 0.85,
			"wsj.com":            0.85,
			"theguardian.com":    0.80,
			"bloomberg.com":      0.80,
			"ft.com":             0.80,
			"economist.com":      0.80,
			"npr.org":            0.75,
			"aljazeera.com":      0.70,
			"cnn.com":            0.70,
			"cnbc.com":           0.70,
			"politico.com":       0.70,
			"axios.com":          0.70,
		},
		NeutralAuthority: 0.5,
	}
}

// Validate checks the configuration for systemic errors. A misconfigured
// scorer would corrupt every result silently, so this fails fast.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	for _, p := range []WeightProfile{c.NewsProfile, c.EvergreenProfile} {
		if p.Semantic < 0 || p.Lexical < 0 || p.Freshness < 0 || p.Source < 0 {
			return fmt.Errorf("profile %q: weights must be non-negative", p.Name)
		}
		if p.DecayTauHours <= 0 {
			return fmt.Errorf("profile %q: decay_tau_hours must be positive, got %f", p.Name, p.DecayTauHours)
		}
	}

	if c.MinCosine < 0 || c.MinCosine > 1 {
		return fmt.Errorf("min_cosine must be in [0, 1], got %f", c.MinCosine)
	}
	if c.DatePenaltyFactor <= 0 || c.DatePenaltyFactor > 1 {
		return fmt.Errorf("date_penalty_factor must be in (0, 1], got %f", c.DatePenaltyFactor)
	}
	if c.DuplicateTitleFactor <= 0 || c.DuplicateTitleFactor > 1 {
		return fmt.Errorf("duplicate_title_factor must be in (0, 1], got %f", c.DuplicateTitleFactor)
	}
	if c.DuplicateContentFactor <= 0 || c.DuplicateContentFactor > 1 {
		return fmt.Errorf("duplicate_content_factor must be in (0, 1], got %f", c.DuplicateContentFactor)
	}
	if c.CategoryMinMatches < 1 {
		return fmt.Errorf("category_min_matches must be positive, got %d", c.CategoryMinMatches)
	}
	if c.MaxPerDomain < 1 {
		return fmt.Errorf("max_per_domain must be positive, got %d", c.MaxPerDomain)
	}
	if c.MaxPerArticle < 1 {
		return fmt.Errorf("max_per_article must be positive, got %d", c.MaxPerArticle)
	}
	if c.NeutralAuthority < 0 || c.NeutralAuthority > 1 {
		return fmt.Errorf("neutral_authority must be in [0, 1], got %f", c.NeutralAuthority)
	}

	for name, cp := range c.CategoryPenalties {
		if cp.Factor <= 0 || cp.Factor > 1 {
			return fmt.Errorf("category %q: factor must be in (0, 1], got %f", name, cp.Factor)
		}
	}

	for domain, score := range c.SourceAuthority {
		if score < 0 || score > 1 {
			return fmt.Errorf("source_authority[%q] must be in [0, 1], got %f", domain, score)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c

	out.EvergreenTriggers = append([]string(nil), c.EvergreenTriggers...)

	out.CategoryPenalties = make(map[string]CategoryPenalty, len(c.CategoryPenalties))
	for name, cp := range c.CategoryPenalties {
		cp.Keywords = append([]string(nil), cp.Keywords...)
		cp.QueryTriggers = append([]string(nil), cp.QueryTriggers...)
		out.CategoryPenalties[name] = cp
	}

	out.SourceAuthority = make(map[string]float64, len(c.SourceAuthority))
	for domain, score := range c.SourceAuthority {
		out.SourceAuthority[domain] = score
	}

	return &out
}

// ProfileFor selects the weight profile for a normalized query string.
// Evergreen intent is detected by trigger-phrase matching on word boundaries,
// so "show me the news" does not trip the "how" trigger.
func (c *Config) ProfileFor(query string) WeightProfile {
	padded := " " + strings.Join(strings.Fields(strings.ToLower(query)), " ") + " "
	for _, trigger := range c.EvergreenTriggers {
		if strings.Contains(padded, " "+trigger+" ") {
			return c.EvergreenProfile
		}
	}
	return c.NewsProfile
}

// Authority resolves the domain authority score: explicit override first,
// then the static table, then the neutral default.
func (c *Config) Authority(domain string, override *float64) float64 {
	if override != nil {
		return clamp01(*override)
	}
	if score, ok := c.SourceAuthority[strings.ToLower(domain)]; ok {
		return score
	}
	return c.NeutralAuthority
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
