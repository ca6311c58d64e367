package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the word lists driving the fraud heuristics. The defaults
// match the tuned production lists; deployments can override them from a
// YAML file without rebuilding.
type Rules struct {
	// SuspiciousKeywords flag high-value or urgency-laden wording in a
	// single report.
	SuspiciousKeywords []string `yaml:"suspicious_keywords"`

	// PairKeywords is the shorter list applied to the combined descriptions
	// of a lost/found pair.
	PairKeywords []string `yaml:"pair_keywords"`

	// GenericPhrases flag descriptions with no identifying detail.
	GenericPhrases []string `yaml:"generic_phrases"`

	// VagueLocations are location values treated as missing.
	VagueLocations []string `yaml:"vague_locations"`
}

// DefaultRules returns the built-in word lists.
func DefaultRules() *Rules {
	return &Rules{
		SuspiciousKeywords: []string{
			"urgent", "asap", "reward", "expensive", "valuable", "brand new",
			"iphone", "samsung", "macbook", "laptop", "jewelry", "gold", "diamond",
			"wallet", "purse", "handbag", "watch", "ring", "necklace",
		},
		PairKeywords: []string{
			"urgent", "asap", "reward", "expensive", "valuable", "brand new",
			"iphone", "samsung", "macbook", "laptop", "jewelry", "gold", "diamond",
		},
		GenericPhrases: []string{
			"lost item", "found item", "personal belongings", "valuable item",
			"important document", "electronic device", "accessory",
		},
		VagueLocations: []string{"unknown", "n/a", "not specified"},
	}
}

// LoadRules reads rule overrides from a YAML file. Lists absent from the
// file keep their defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var overrides Rules
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if len(overrides.SuspiciousKeywords) > 0 {
		rules.SuspiciousKeywords = overrides.SuspiciousKeywords
	}
	if len(overrides.PairKeywords) > 0 {
		rules.PairKeywords = overrides.PairKeywords
	}
	if len(overrides.GenericPhrases) > 0 {
		rules.GenericPhrases = overrides.GenericPhrases
	}
	if len(overrides.VagueLocations) > 0 {
		rules.VagueLocations = overrides.VagueLocations
	}

	return rules, nil
}
