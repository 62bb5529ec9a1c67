package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"", "", 0},
		{"a", "a", 0},
		{"hello", "hello", 0},

		{"", "abc", 3},
		{"abc", "", 3},

		{"a", "b", 1},
		{"a", "ab", 1},
		{"ab", "a", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},

		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"algorithm", "altruistic", 6},

		// Case matters here; callers normalize first.
		{"ABC", "abc", 3},
		{"Hello", "hello", 1},

		{"process", "process", 0},
		{"process", "process2", 1},
		{"decision", "decision1", 1},
		{"startend", "terminator", 8},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a), "distance is symmetric")
		})
	}
}

func TestLevenshteinNormalized(t *testing.T) {
	tests := []struct {
		a    string
		b    string
		want float64
	}{
		{"", "", 1.0},
		{"hello", "hello", 1.0},
		{"abc", "xyz", 0.0},
		{"kitten", "sitting", 1.0 - 3.0/7.0},
		{"abc", "ab", 1.0 - 1.0/3.0},
		{"process", "process2", 1.0 - 1.0/8.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, LevenshteinNormalized(tt.a, tt.b), 0.001)
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		minScore float64
	}{
		// Exact after normalization.
		{"Rounded Rectangle", "rounded-rectangle", 1.0},
		{"Start/End", "StartEnd", 1.0},
		{"Dynamic connector", "Dynamic Connector", 1.0},

		{"Process", "Process 2", 0.85},
		{"Decision", "Decision 1", 0.85},

		{"Process", "Database", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.GreaterOrEqual(t, Score(tt.a, tt.b), tt.minScore)
		})
	}
}

func BenchmarkLevenshtein(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Levenshtein("algorithm", "altruistic")
	}
}

func BenchmarkScore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Score("Rounded Rectangle", "rounded-rectangle-2")
	}
}
