package match

import "sort"

// Candidate represents a potential mapping from a source master to a target master.
type Candidate struct {
	// TargetName is the catalog name of the candidate target master.
	TargetName string

	// Score is the normalized Levenshtein similarity (0-1, higher is better).
	Score float64

	// Metadata for debugging/explanation
	NormalizedSource string
	NormalizedTarget string
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// RankCandidates scores every target master name against a source master name.
// Returns candidates sorted by score (descending). Target names that normalize
// to the empty string carry no signal and are skipped.
func RankCandidates(sourceName string, targetNames []string) CandidateList {
	sourceNorm := NormalizeName(sourceName)

	var candidates CandidateList

	for _, target := range targetNames {
		targetNorm := NormalizeName(target)
		if targetNorm == "" {
			continue
		}

		candidates = append(candidates, Candidate{
			TargetName:       target,
			Score:            LevenshteinNormalized(sourceNorm, targetNorm),
			NormalizedSource: sourceNorm,
			NormalizedTarget: targetNorm,
		})
	}

	// Sort by score (descending), then by name for determinism
	sort.Sort(candidates)

	return candidates
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by score descending, then by target name for determinism.
func (c CandidateList) Less(i, j int) bool {
	// Higher score comes first
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}
	// Tie-breaker: alphabetical by target master name
	return c[i].TargetName < c[j].TargetName
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}
	return c[:n]
}

// Best returns the best candidate, or nil if no candidates.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}
	return &c[0]
}

// IsAmbiguous returns true if the top two candidates are within the threshold.
func (c CandidateList) IsAmbiguous(threshold float64) bool {
	if len(c) < 2 {
		return false
	}
	diff := c[0].Score - c[1].Score
	return diff < threshold
}

// HighConfidence returns the best candidate if it's significantly better than alternatives.
// Returns nil if no clear winner exists.
func (c CandidateList) HighConfidence(minScore, minGap float64) *Candidate {
	if len(c) == 0 {
		return nil
	}
	best := &c[0]

	// Must meet minimum score threshold
	if best.Score < minScore {
		return nil
	}

	// If there's a second candidate, must have sufficient gap
	if len(c) > 1 {
		gap := c[0].Score - c[1].Score
		if gap < minGap {
			return nil
		}
	}

	return best
}

// Confidence thresholds for auto-accepting matches.
const (
	// DefaultMinScore is the minimum similarity score for auto-acceptance.
	DefaultMinScore = 0.7
	// DefaultMinGap is the minimum score gap between top candidates.
	DefaultMinGap = 0.15
	// DefaultAmbiguityThreshold is the score difference that marks ambiguity.
	DefaultAmbiguityThreshold = 0.1
)
