// Package catalog turns project snapshots into exportable documents.
package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/benvon/lingua-drome/internal/models"
)

// Credit lines closing every catalog, in English and Portuguese
const (
	CreditEN = "Rodrigo Garcia Dutra in collaboration with Multimodal Large Language Model ChatGPT-5 through prompts, conversations and dreams."
	CreditPT = "Rodrigo Garcia Dutra em colaboração com Largo Modelo de Linguagem Multimodal ChatGPT-5 através de prompts, conversas e sonhos."
)

const catalogTitle = "# Língua Drome — Metamorphic Fold (v1.0)"

// tagLabels are the bullet labels of each tag category in the catalog
var tagLabels = map[models.Category]string{
	models.CategoryMaterial:   "Material",
	models.CategoryColors:     "Colors",
	models.CategoryGesture:    "Gesture",
	models.CategoryAtmosphere: "Atmosphere",
	models.CategoryPsychic:    "Psychic",
}

// Markdown renders the human-readable catalog of a snapshot. phase is the
// session phase shown in the header. Output is deterministic for a given input.
func Markdown(snapshot models.Snapshot, phase models.Phase) string {
	lines := make([]string, 0, 4+len(snapshot.Assets)*10)
	lines = append(lines,
		catalogTitle+"\n",
		"**Phase:** "+strings.ToUpper(string(phase))+" — total assets: "+strconv.Itoa(len(snapshot.Assets)),
		"",
	)

	for i, a := range snapshot.Assets {
		lines = append(lines,
			"## "+strconv.Itoa(i+1)+". "+a.Name,
			"- Type: "+string(a.Type),
			"- Phase: "+string(a.Phase),
		)
		for _, c := range models.Categories {
			if values := a.Tags[c]; len(values) > 0 {
				lines = append(lines, "- "+tagLabels[c]+": "+strings.Join(values, ", "))
			}
		}
		if a.Timecode != nil {
			lines = append(lines, "- Timecode: "+FormatTimecode(*a.Timecode)+"s")
		}
		if a.Notes != "" {
			lines = append(lines, "- Notes: "+a.Notes)
		}
		if a.Prompt != "" {
			lines = append(lines, "- Prompt: "+a.Prompt)
		}
		lines = append(lines, "")
	}

	lines = append(lines, "---\n"+CreditEN+"\n"+CreditPT+"\n")
	return strings.Join(lines, "\n")
}

// FormatTimecode prints seconds in their shortest decimal form (12.5 -> "12.5", 3 -> "3").
// Magnitudes below 1e-6 or from 1e21 up switch to exponent form ("1e-7", "1e+21").
func FormatTimecode(seconds float64) string {
	if seconds == 0 {
		return "0"
	}
	if abs := math.Abs(seconds); abs < 1e-6 || abs >= 1e21 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(seconds, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
