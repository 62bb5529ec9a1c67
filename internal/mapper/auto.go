package mapper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"visio-restyle/internal/diagnostic"
	"visio-restyle/internal/diagram"
	"visio-restyle/internal/match"
)

// Config holds tunables for the auto mapper's ranked-matching stage.
type Config struct {
	// MinScore is the minimum similarity for accepting a ranked match.
	MinScore float64
	// MinGap is the minimum score gap between the top two candidates.
	MinGap float64
	// AmbiguityThreshold marks the top two candidates as ambiguous if their
	// scores are within this difference.
	AmbiguityThreshold float64
}

// DefaultConfig returns the default auto mapper configuration.
func DefaultConfig() Config {
	return Config{
		MinScore:           match.DefaultMinScore,
		MinGap:             match.DefaultMinGap,
		AmbiguityThreshold: match.DefaultAmbiguityThreshold,
	}
}

// AutoMapper maps shapes to target masters using name-based heuristics.
//
// Resolution order per shape: exact normalized match, synonym rules, keyword
// fallbacks, connector-flavored names to the rules' connector master, then
// edit-distance ranking gated by the Config thresholds. Shapes that resolve
// nowhere are omitted rather than guessed. Page connectors are never mapped:
// the rebuild pipeline keeps their routing master regardless.
type AutoMapper struct {
	rules  Rules
	config Config
}

// NewAutoMapper creates an AutoMapper with the given rules and configuration.
func NewAutoMapper(rules Rules, config Config) *AutoMapper {
	return &AutoMapper{rules: rules, config: config}
}

// CreateMapping implements Mapper. Shapes without a master name are skipped;
// unresolved shapes are recorded as info notes and left out of the table.
func (m *AutoMapper) CreateMapping(_ context.Context, d *diagram.Diagram, masters *diagram.MastersFile, rep *diagnostic.Report) (diagram.Mapping, error) {
	targets := newTargetSet(masters)
	mapping := diagram.Mapping{}

	for _, page := range d.Pages {
		for _, shape := range page.Shapes {
			if shape.MasterName == nil || *shape.MasterName == "" {
				continue
			}

			if name, ok := m.resolve(*shape.MasterName, targets, page.Name, shape.ID, rep); ok {
				mapping[shape.ID] = name
			}
		}
	}

	return mapping, nil
}

func (m *AutoMapper) resolve(masterName string, targets *targetSet, pageName, shapeID string, rep *diagnostic.Report) (string, bool) {
	norm := match.NormalizeName(masterName)
	if norm == "" {
		return "", false
	}

	// Exact normalized match
	if name, ok := targets.exact(norm); ok {
		return name, true
	}

	// Synonym rules
	for _, candidate := range m.rules.Synonyms[norm] {
		if name, ok := targets.resolve(candidate); ok {
			return name, true
		}
	}

	// Keyword fallbacks
	for _, keyword := range m.fallbackOrder() {
		if !strings.Contains(norm, keyword) {
			continue
		}

		if name, ok := targets.resolve(m.rules.Fallbacks[keyword]); ok {
			return name, true
		}
	}

	// Connector-flavored names glue to the rules' connector master
	if m.rules.ConnectorMaster != "" &&
		(strings.Contains(norm, "connector") || strings.Contains(norm, "arrow")) {
		if name, ok := targets.resolve(m.rules.ConnectorMaster); ok {
			return name, true
		}
	}

	// Ranked edit-distance match as the last resort
	candidates := match.RankCandidates(masterName, targets.names)
	if best := candidates.HighConfidence(m.config.MinScore, m.config.MinGap); best != nil {
		return best.TargetName, true
	}

	rep.AddInfo(diagnostic.CodeNoMatch,
		fmt.Sprintf("master %q: %s; shape left unmapped", masterName, m.noMatchReason(candidates)),
		pageName, shapeID)

	return "", false
}

// noMatchReason explains why the ranked stage rejected every candidate.
func (m *AutoMapper) noMatchReason(candidates match.CandidateList) string {
	switch {
	case len(candidates) >= 2 && candidates.IsAmbiguous(m.config.AmbiguityThreshold):
		return fmt.Sprintf("ambiguous: top candidates %q (%.2f) and %q (%.2f) are too close",
			candidates[0].TargetName, candidates[0].Score,
			candidates[1].TargetName, candidates[1].Score)
	case len(candidates) > 0:
		return fmt.Sprintf("best candidate %q (%.2f) below threshold %.2f",
			candidates[0].TargetName, candidates[0].Score, m.config.MinScore)
	default:
		return "no usable target masters"
	}
}

// fallbackOrder returns fallback keywords longest first so the most specific
// keyword wins, with a lexicographic tie-break for determinism.
func (m *AutoMapper) fallbackOrder() []string {
	keywords := make([]string, 0, len(m.rules.Fallbacks))
	for keyword := range m.rules.Fallbacks {
		keywords = append(keywords, keyword)
	}

	sort.Slice(keywords, func(i, j int) bool {
		if len(keywords[i]) != len(keywords[j]) {
			return len(keywords[i]) > len(keywords[j])
		}

		return keywords[i] < keywords[j]
	})

	return keywords
}

// targetSet indexes a master listing for name resolution.
type targetSet struct {
	names  []string          // catalog names, listing order
	norms  []string          // normalized forms, same order
	byNorm map[string]string // normalized form -> catalog name
}

func newTargetSet(masters *diagram.MastersFile) *targetSet {
	ts := &targetSet{byNorm: make(map[string]string)}

	for _, master := range masters.Masters {
		norm := match.NormalizeName(master.Name)
		if norm == "" {
			continue
		}

		ts.names = append(ts.names, master.Name)
		ts.norms = append(ts.norms, norm)

		if _, exists := ts.byNorm[norm]; !exists {
			ts.byNorm[norm] = master.Name
		}
	}

	return ts
}

// exact returns the catalog name whose normalized form equals norm.
func (ts *targetSet) exact(norm string) (string, bool) {
	name, ok := ts.byNorm[norm]

	return name, ok
}

// resolve matches a rule-supplied candidate name against the catalog: exact
// normalized match first, then containment either way, in listing order.
func (ts *targetSet) resolve(candidate string) (string, bool) {
	norm := match.NormalizeName(candidate)
	if norm == "" {
		return "", false
	}

	if name, ok := ts.byNorm[norm]; ok {
		return name, true
	}

	for i, targetNorm := range ts.norms {
		if strings.Contains(targetNorm, norm) || strings.Contains(norm, targetNorm) {
			return ts.names[i], true
		}
	}

	return "", false
}
