package models

// Phase is one of the three thematic modes an asset or the whole session is tagged with
type Phase string

const (
	PhaseRhizome Phase = "rhizome"
	PhaseEllipse Phase = "ellipse"
	PhaseFold    Phase = "fold"
)

// DefaultPhase is the session phase used when nothing else is configured
const DefaultPhase = PhaseEllipse

// Phases lists every phase in display order
var Phases = []Phase{PhaseRhizome, PhaseEllipse, PhaseFold}

// Valid reports whether p is a known phase
func (p Phase) Valid() bool {
	switch p {
	case PhaseRhizome, PhaseEllipse, PhaseFold:
		return true
	default:
		return false
	}
}

// Label returns the display label for the phase
func (p Phase) Label() string {
	switch p {
	case PhaseRhizome:
		return "Rhizome / Root"
	case PhaseEllipse:
		return "Ellipse / Ritual"
	case PhaseFold:
		return "Fold / Acre"
	default:
		return string(p)
	}
}

// MediaKind is the kind of media an asset holds
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// Valid reports whether k is a known media kind
func (k MediaKind) Valid() bool {
	return k == MediaKindImage || k == MediaKindVideo
}

// Category is a tag category key shared by asset tags and the token vocabulary
type Category string

const (
	CategoryMaterial   Category = "material"
	CategoryColors     Category = "colors"
	CategoryGesture    Category = "gesture"
	CategoryAtmosphere Category = "atmosphere"
	CategoryPsychic    Category = "psychic"
)

// Categories lists every category in catalog order
var Categories = []Category{
	CategoryMaterial,
	CategoryColors,
	CategoryGesture,
	CategoryAtmosphere,
	CategoryPsychic,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
