package models

import "slices"

// Tags maps a category to the user's ordered tag entries. Duplicates are allowed.
type Tags map[Category][]string

// Clone returns a deep copy of the tags
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = slices.Clone(v)
	}
	return out
}

// With returns a copy of the tags with category c replaced by values
func (t Tags) With(c Category, values []string) Tags {
	out := t.Clone()
	if out == nil {
		out = make(Tags)
	}
	out[c] = slices.Clone(values)
	return out
}

// Asset represents one imported media item
type Asset struct {
	ID       string    `json:"id" validate:"required"`
	Name     string    `json:"name"`
	Type     MediaKind `json:"type" validate:"media_kind"`
	Phase    Phase     `json:"phase" validate:"phase"`
	Timecode *float64  `json:"timecode,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Prompt   string    `json:"prompt,omitempty"`
	Tags     Tags      `json:"tags"`

	// Resource is the transient content reference. It is never serialized.
	Resource string `json:"-"`
}

// HasContent reports whether the asset still holds a content reference.
// Assets restored from a snapshot have none until they are relinked.
func (a Asset) HasContent() bool {
	return a.Resource != ""
}

// Clone returns a deep copy of the asset
func (a Asset) Clone() Asset {
	out := a
	out.Tags = a.Tags.Clone()
	if a.Timecode != nil {
		tc := *a.Timecode
		out.Timecode = &tc
	}
	return out
}
