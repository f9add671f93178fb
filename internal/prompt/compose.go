// Package prompt builds natural-language prompts for generative media tools
// from a phase, picked vocabulary and a free-text line.
package prompt

import (
	"strings"

	"github.com/benvon/lingua-drome/internal/models"
)

// Picks holds the vocabulary entries chosen per category, in selection order
type Picks map[models.Category][]string

var sceneSentences = map[models.Phase]string{
	models.PhaseRhizome: "Scene — Rhizome Expansion: a living surface of paint and soil; roots as fluorescent threads of light.",
	models.PhaseEllipse: "Scene — Elliptical Breathing: translucent ellipses expand and contract like cosmic lungs.",
	models.PhaseFold:    "Scene — The Metamorphic Fold (Acre): pigments erode, drip, dissolve into new forms; membranes vibrate like liquid DNA.",
}

var pickLabels = map[models.Category]string{
	models.CategoryMaterial:   "Textures",
	models.CategoryColors:     "Colors",
	models.CategoryGesture:    "Gesture",
	models.CategoryAtmosphere: "Atmosphere",
	models.CategoryPsychic:    "Psychic field",
}

// SceneSentence returns the opening sentence for a phase, or "" for an unknown phase
func SceneSentence(phase models.Phase) string {
	return sceneSentences[phase]
}

// Compose joins the scene sentence for phase, one clause per non-empty pick
// category and the trimmed custom line with single spaces.
func Compose(phase models.Phase, picks Picks, customLine string) string {
	parts := make([]string, 0, len(models.Categories)+2)
	if scene := SceneSentence(phase); scene != "" {
		parts = append(parts, scene)
	}
	for _, c := range models.Categories {
		if values := picks[c]; len(values) > 0 {
			parts = append(parts, pickLabels[c]+": "+strings.Join(values, ", ")+".")
		}
	}
	if line := strings.TrimSpace(customLine); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
