package catalog

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const defaultRenderWidth = 80

// Render formats Markdown for display in a terminal
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = defaultRenderWidth
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
