package mapper

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"visio-restyle/internal/match"
)

//go:embed defaults.yaml
var defaultRulesYAML []byte

// Rules drive the auto mapper's synonym and keyword stages.
type Rules struct {
	// Synonyms maps a normalized source master name to target master names
	// tried in order against the catalog.
	Synonyms map[string][]string `yaml:"synonyms"`

	// Fallbacks maps a keyword to a target master name. A fallback applies
	// when the normalized source name contains the keyword; longer keywords
	// are tried before shorter ones.
	Fallbacks map[string]string `yaml:"fallbacks"`

	// ConnectorMaster is the target for shapes whose master name marks them
	// as connector-flavored ("connector", "arrow").
	ConnectorMaster string `yaml:"connector_master"`
}

// DefaultRules returns the embedded default ruleset.
func DefaultRules() Rules {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default rules: %v", err))
	}

	return rules
}

// LoadRules loads and parses a YAML rules file from the given path.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	return ParseRules(data)
}

// ParseRules parses YAML data into Rules. Synonym keys and fallback keywords
// are normalized; entries whose key normalizes to nothing are dropped.
func ParseRules(data []byte) (Rules, error) {
	var rules Rules

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	normalizeRules(&rules)

	return rules, nil
}

func normalizeRules(rules *Rules) {
	if len(rules.Synonyms) > 0 {
		synonyms := make(map[string][]string, len(rules.Synonyms))

		for key, names := range rules.Synonyms {
			norm := match.NormalizeName(key)
			if norm == "" || len(names) == 0 {
				continue
			}

			synonyms[norm] = names
		}

		rules.Synonyms = synonyms
	}

	if len(rules.Fallbacks) > 0 {
		fallbacks := make(map[string]string, len(rules.Fallbacks))

		for keyword, name := range rules.Fallbacks {
			norm := match.NormalizeName(keyword)
			if norm == "" || name == "" {
				continue
			}

			fallbacks[norm] = name
		}

		rules.Fallbacks = fallbacks
	}
}
