// Newsrank - News Result Ranking, Deduplication, and Diversification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package dedup

import (
	"reflect"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and collapses whitespace",
			input: "Breaking   News\t\tToday",
			want:  "breaking news today",
		},
		{
			name:  "strips urls",
			input: "Details at https://example.com/story?id=1 for now",
			want:  "details at for now",
		},
		{
			name:  "strips emails",
			input: "Contact tips@example.com for details",
			want:  "contact for details",
		},
		{
			name:  "strips wire boilerplate",
			input: "(Reuters) - Markets rallied on Tuesday",
			want:  "- markets rallied on tuesday",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "  \t\n  ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("fed raises rates, again: 0.25%")
	want := []string{"fed", "raises", "rates", "again", "0", "25"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestShingles(t *testing.T) {
	t.Run("standard trigram shingles", func(t *testing.T) {
		tokens := []string{"a", "b", "c", "d"}
		got := Shingles(tokens, 3)
		want := map[string]struct{}{"a b c": {}, "b c d": {}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Shingles() = %v, want %v", got, want)
		}
	})

	t.Run("short text collapses to one shingle", func(t *testing.T) {
		got := Shingles([]string{"just", "two"}, 3)
		if _, ok := got["just two"]; !ok || len(got) != 1 {
			t.Errorf("Shingles() = %v, want single combined shingle", got)
		}
	})

	t.Run("empty tokens yield no shingles", func(t *testing.T) {
		if got := Shingles(nil, 3); len(got) != 0 {
			t.Errorf("Shingles(nil) = %v, want empty", got)
		}
	})
}

func TestTokenJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "fed raises rates", "fed raises rates", 1.0},
		{"disjoint", "fed raises rates", "storm hits coast", 0.0},
		{"half overlap", "a b c d", "c d e f", 1.0 / 3.0},
		{"both empty", "", "", 0.0},
		{"one empty", "fed", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenJaccard(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("TokenJaccard(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestShingleJaccard_NearDuplicates(t *testing.T) {
	a := "The Federal Reserve raised interest rates by a quarter point on Wednesday citing persistent inflation"
	b := "The Federal Reserve raised interest rates by a quarter point on Wednesday citing persistent inflation pressures"
	c := "Local bakery wins award for best sourdough in the county fair this weekend"

	if sim := ShingleJaccard(a, b, 3); sim < 0.7 {
		t.Errorf("near-duplicate similarity = %f, want >= 0.7", sim)
	}
	if sim := ShingleJaccard(a, c, 3); sim > 0.1 {
		t.Errorf("unrelated similarity = %f, want <= 0.1", sim)
	}
}
