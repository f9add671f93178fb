package models

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Tokens is the vocabulary of reusable phrases offered per category in the prompt console
type Tokens map[Category][]string

// DefaultTokens returns the built-in vocabulary
func DefaultTokens() Tokens {
	return Tokens{
		CategoryMaterial: {
			"mineral pigments",
			"wet soil + acrylic",
			"paint-splattered surface",
			"wooden panel",
			"dry oil crust",
		},
		CategoryColors: {
			"violet, turquoise, gold, emerald",
			"pastel blues + prismatic light",
			"ochres + ultramarine",
		},
		CategoryGesture: {
			"mesh of threads",
			"elliptical breathing",
			"rhizome expansion",
			"specular brightness",
			"ritual dust",
		},
		CategoryAtmosphere: {
			"dreamlike, alchemical",
			"minimal, meditative, suspended",
			"organic + digital, translucent membranes",
		},
		CategoryPsychic: {
			"unconscious",
			"desire",
			"erotic",
			"trance",
			"melancholic joy",
		},
	}
}

// Clone returns a deep copy of the vocabulary
func (t Tokens) Clone() Tokens {
	if t == nil {
		return nil
	}
	out := make(Tokens, len(t))
	for k, v := range t {
		out[k] = slices.Clone(v)
	}
	return out
}

// ParseTokens decodes a vocabulary document. YAML and JSON are both accepted.
func ParseTokens(data []byte) (Tokens, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	tokens := make(Tokens, len(raw))
	for key, values := range raw {
		c := Category(key)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown vocabulary category: %s", key)
		}
		tokens[c] = values
	}
	return tokens, nil
}
