package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/lingua-drome/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("phase", validatePhase); err != nil {
		panic(fmt.Sprintf("failed to register phase validator: %v", err))
	}
	if err := Validate.RegisterValidation("media_kind", validateMediaKind); err != nil {
		panic(fmt.Sprintf("failed to register media_kind validator: %v", err))
	}
	if err := Validate.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register category validator: %v", err))
	}
}

func validatePhase(fl validator.FieldLevel) bool {
	return models.Phase(fl.Field().String()).Valid()
}

func validateMediaKind(fl validator.FieldLevel) bool {
	return models.MediaKind(fl.Field().String()).Valid()
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	return StripControl(strings.TrimSpace(text))
}

// StripControl removes control characters except newline and tab. Free-text
// fields go through it so their whitespace is kept as typed.
func StripControl(text string) string {
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}

// ParseTagList splits comma-separated tag input. Entries are trimmed and empty
// entries dropped; order and duplicates are kept.
func ParseTagList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidatePhase validates a Phase string value
func ValidatePhase(value string) error {
	if !models.Phase(value).Valid() {
		return fmt.Errorf("invalid phase: %s (must be 'rhizome', 'ellipse', or 'fold')", value)
	}
	return nil
}

// ValidateMediaKind validates a MediaKind string value
func ValidateMediaKind(value string) error {
	if !models.MediaKind(value).Valid() {
		return fmt.Errorf("invalid type: %s (must be 'image' or 'video')", value)
	}
	return nil
}

// ValidateCategory validates a tag Category string value
func ValidateCategory(value string) error {
	if !models.Category(value).Valid() {
		return fmt.Errorf("invalid category: %s (must be one of material, colors, gesture, atmosphere, psychic)", value)
	}
	return nil
}

// ValidateAsset runs the struct validation rules for an asset
func ValidateAsset(a models.Asset) error {
	if err := Validate.Struct(a); err != nil {
		return fmt.Errorf("asset %q: %w", a.ID, err)
	}
	return nil
}
