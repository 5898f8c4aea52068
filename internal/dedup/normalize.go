// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"regexp"
	"strings"
	"unicode"
)

// Wire-service mirrors republish the same story with tracking URLs, byline
// boilerplate, and agency credits injected. Normalization strips those so the
// content hash and signatures see the underlying story text.

var (
	urlPattern   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// boilerplatePhrases are agency credits and syndication markers removed
// before hashing. Matching is case-insensitive on the lowercased text.
var boilerplatePhrases = []string{
	"(reuters)",
	"(ap)",
	"(afp)",
	"(bloomberg)",
	"- reuters",
	"- associated press",
	"all rights reserved",
	"read more at",
	"originally published",
	"this article was updated",
	"subscribe to our newsletter",
}

// NormalizeText lowercases, strips URLs, emails, and boilerplate phrases,
// drops control characters, and collapses whitespace. The result is the
// canonical form used for both content hashing and shingling.
func NormalizeText(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	if lowered == "" {
		return ""
	}

	lowered = urlPattern.ReplaceAllString(lowered, " ")
	lowered = emailPattern.ReplaceAllString(lowered, " ")
	for _, phrase := range boilerplatePhrases {
		lowered = strings.ReplaceAll(lowered, phrase, " ")
	}

	var b strings.Builder
	b.Grow(len(lowered))
	lastSpace := false
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits normalized text into lowercase word tokens, dropping
// punctuation.
func Tokenize(text string) []string {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil
	}

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Shingles returns the set of token n-grams of the given size. Texts shorter
// than one shingle yield a single shingle of all their tokens, so short
// documents still produce a usable signature.
func Shingles(tokens []string, size int) map[string]struct{} {
	if len(tokens) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	if len(tokens) < size {
		return map[string]struct{}{strings.Join(tokens, " "): {}}
	}

	set := make(map[string]struct{}, len(tokens)-size+1)
	for i := 0; i+size <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+size], " ")] = struct{}{}
	}
	return set
}

// TokenJaccard computes the Jaccard similarity of the token sets of two
// strings. Empty inputs yield 0.
func TokenJaccard(left, right string) float64 {
	return setJaccard(tokenSet(left), tokenSet(right))
}

// ShingleJaccard computes the exact Jaccard similarity of the shingle sets
// of two strings.
func ShingleJaccard(left, right string, size int) float64 {
	return setJaccard(Shingles(Tokenize(left), size), Shingles(Tokenize(right), size))
}

func tokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func setJaccard(left, right map[string]struct{}) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for k := range left {
		if _, ok := right[k]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
