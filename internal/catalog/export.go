package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/benvon/lingua-drome/internal/models"
)

// Export is a downloadable document
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

const (
	CatalogFilename = "Lingua_Drome_Catalog_v1.md"
	ProjectFilename = "Lingua_Drome_Project_v1.json"

	MarkdownContentType = "text/markdown"
	JSONContentType     = "application/json"
)

// ProjectJSON encodes a snapshot as the two-space indented project file.
// The result is accepted by project.Store.Load.
func ProjectJSON(snapshot models.Snapshot) ([]byte, error) {
	if snapshot.Assets == nil {
		snapshot.Assets = []models.Asset{}
	}
	if snapshot.Tokens == nil {
		snapshot.Tokens = models.Tokens{}
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project file: %w", err)
	}
	return data, nil
}

// CatalogExport builds the Markdown catalog download
func CatalogExport(snapshot models.Snapshot, phase models.Phase) Export {
	return Export{
		Filename:    CatalogFilename,
		ContentType: MarkdownContentType,
		Body:        []byte(Markdown(snapshot, phase)),
	}
}

// ProjectExport builds the JSON project file download
func ProjectExport(snapshot models.Snapshot) (Export, error) {
	data, err := ProjectJSON(snapshot)
	if err != nil {
		return Export{}, err
	}
	return Export{
		Filename:    ProjectFilename,
		ContentType: JSONContentType,
		Body:        data,
	}, nil
}
