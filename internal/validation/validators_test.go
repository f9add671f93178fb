package validation

import (
	"slices"
	"testing"

	"github.com/benvon/lingua-drome/internal/models"
)

func TestParseTagList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"trims and drops empties", "red, blue ,  green", []string{"red", "blue", "green"}},
		{"empty input", "", []string{}},
		{"only separators", " , ,, ", []string{}},
		{"keeps duplicates in order", "soil, ash, soil", []string{"soil", "ash", "soil"}},
		{"single value", "  trance ", []string{"trance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseTagList(tt.raw)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseTagList(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims", "  notes  ", "notes"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"drops control chars", "a\x00b\x07c", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps surrounding spaces", "  notes  ", "  notes  "},
		{"keeps blank lines", "\nline\n\n", "\nline\n\n"},
		{"drops control chars only", " a\x00b\x1bc ", " abc "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripControl(tt.in); got != tt.want {
				t.Errorf("StripControl(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateEnums(t *testing.T) {
	t.Parallel()

	if err := ValidatePhase("fold"); err != nil {
		t.Errorf("Expected fold to be valid, got %v", err)
	}
	if err := ValidatePhase("FOLD"); err == nil {
		t.Error("Expected FOLD to be rejected")
	}
	if err := ValidateMediaKind("video"); err != nil {
		t.Errorf("Expected video to be valid, got %v", err)
	}
	if err := ValidateMediaKind("audio"); err == nil {
		t.Error("Expected audio to be rejected")
	}
	if err := ValidateCategory("psychic"); err != nil {
		t.Errorf("Expected psychic to be valid, got %v", err)
	}
	if err := ValidateCategory("mood"); err == nil {
		t.Error("Expected mood to be rejected")
	}
}

func TestValidateAsset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		asset   models.Asset
		wantErr bool
	}{
		{
			name:  "valid",
			asset: models.Asset{ID: "a", Name: "Seed", Type: models.MediaKindImage, Phase: models.PhaseRhizome},
		},
		{
			name:    "missing id",
			asset:   models.Asset{Name: "Seed", Type: models.MediaKindImage, Phase: models.PhaseRhizome},
			wantErr: true,
		},
		{
			name:    "bad type",
			asset:   models.Asset{ID: "a", Type: "audio", Phase: models.PhaseRhizome},
			wantErr: true,
		},
		{
			name:    "bad phase",
			asset:   models.Asset{ID: "a", Type: models.MediaKindVideo, Phase: "spiral"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateAsset(tt.asset)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAsset() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
