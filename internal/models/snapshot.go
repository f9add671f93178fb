package models

// ProjectKey is the durable storage key holding the project snapshot
const ProjectKey = "drome_project_v1"

// Snapshot is the unit of persistence and export
type Snapshot struct {
	Assets []Asset `json:"assets"`
	Tokens Tokens  `json:"tokens"`
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Assets: make([]Asset, len(s.Assets)),
		Tokens: s.Tokens.Clone(),
	}
	for i, a := range s.Assets {
		out.Assets[i] = a.Clone()
	}
	return out
}
