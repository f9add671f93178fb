package project

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/validation"
)

// decodedSnapshot is the loosely validated content of a project document.
// Fields absent from the document are left nil and reported as not present.
type decodedSnapshot struct {
	assets    []models.Asset
	hasAssets bool
	tokens    models.Tokens
	hasTokens bool
}

// decodeSnapshot parses a project document. assets is only taken when it is an
// array and tokens only when present and non-null. Asset ids that are missing or
// repeated are replaced using newID.
func decodeSnapshot(data []byte, newID func() string) (*decodedSnapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("project must be a JSON object")
	}

	var raw struct {
		Assets json.RawMessage `json:"assets"`
		Tokens json.RawMessage `json:"tokens"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}

	out := &decodedSnapshot{}

	if a := bytes.TrimSpace(raw.Assets); len(a) > 0 && a[0] == '[' {
		var assets []models.Asset
		if err := json.Unmarshal(a, &assets); err != nil {
			return nil, fmt.Errorf("failed to parse assets: %w", err)
		}
		if err := normalizeAssets(assets, newID); err != nil {
			return nil, err
		}
		out.assets = assets
		out.hasAssets = true
	}

	if tk := bytes.TrimSpace(raw.Tokens); len(tk) > 0 && !bytes.Equal(tk, []byte("null")) {
		var tokens models.Tokens
		if err := json.Unmarshal(tk, &tokens); err != nil {
			return nil, fmt.Errorf("failed to parse tokens: %w", err)
		}
		for c := range tokens {
			if !c.Valid() {
				return nil, fmt.Errorf("unknown token category: %s", c)
			}
		}
		out.tokens = tokens
		out.hasTokens = true
	}

	return out, nil
}

func normalizeAssets(assets []models.Asset, newID func() string) error {
	seen := make(map[string]bool, len(assets))
	for i := range assets {
		a := &assets[i]
		if a.ID == "" || seen[a.ID] {
			a.ID = newID()
		}
		seen[a.ID] = true
		if a.Tags == nil {
			a.Tags = models.Tags{}
		}
		for c := range a.Tags {
			if !c.Valid() {
				return fmt.Errorf("asset %q: unknown tag category: %s", a.ID, c)
			}
		}
		if err := validation.ValidateAsset(*a); err != nil {
			return err
		}
	}
	return nil
}
