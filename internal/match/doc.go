// Package match provides name normalization, Levenshtein distance calculation,
// and candidate ranking for master-name matching.
//
// Key functions:
//   - NormalizeName: normalizes master names for fuzzy matching
//   - Levenshtein: computes edit distance between strings
//   - RankCandidates: ranks catalog masters against a source master name
package match
