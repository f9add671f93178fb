package prompt

import (
	"fmt"
	"slices"
	"sync"

	"github.com/benvon/lingua-drome/internal/catalog"
	"github.com/benvon/lingua-drome/internal/models"
)

// DefaultCustomLine is the free-text line a new console starts with
const DefaultCustomLine = "— between geology and the psychology of the unconscious; breathing, pulsating transitions"

// State is a copy of the console contents
type State struct {
	Picks      Picks  `json:"picks"`
	CustomLine string `json:"custom_line"`
	Composed   string `json:"composed"`
}

// Console holds the transient prompt-building state of a session.
// It is safe for concurrent use.
type Console struct {
	mu         sync.Mutex
	picks      Picks
	customLine string
	composed   string
}

// NewConsole creates a console with no picks and the default custom line
func NewConsole() *Console {
	return &Console{
		picks:      emptyPicks(),
		customLine: DefaultCustomLine,
	}
}

func emptyPicks() Picks {
	p := make(Picks, len(models.Categories))
	for _, c := range models.Categories {
		p[c] = []string{}
	}
	return p
}

// Toggle adds value to the picks of category, or removes it when already picked.
// It reports whether the value is picked afterwards.
func (c *Console) Toggle(category models.Category, value string) (bool, error) {
	if !category.Valid() {
		return false, fmt.Errorf("unknown category: %s", category)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.picks[category]
	if i := slices.Index(current, value); i >= 0 {
		c.picks[category] = slices.Delete(slices.Clone(current), i, i+1)
		return false, nil
	}
	c.picks[category] = append(slices.Clone(current), value)
	return true, nil
}

// SetCustomLine replaces the free-text line
func (c *Console) SetCustomLine(line string) {
	c.mu.Lock()
	c.customLine = line
	c.mu.Unlock()
}

// Compose builds the prompt for phase from the current picks and stores it
func (c *Console) Compose(phase models.Phase) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.composed = Compose(phase, c.picks, c.customLine)
	return c.composed
}

// SetComposed replaces the composed prompt with user-edited text
func (c *Console) SetComposed(text string) {
	c.mu.Lock()
	c.composed = text
	c.mu.Unlock()
}

// Composed returns the current composed prompt
func (c *Console) Composed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composed
}

// Clear drops all picks and the composed prompt. The custom line is kept.
func (c *Console) Clear() {
	c.mu.Lock()
	c.picks = emptyPicks()
	c.composed = ""
	c.mu.Unlock()
}

// AppendCredits adds both credit lines to the composed prompt
func (c *Console) AppendCredits() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	credits := catalog.CreditEN + " " + catalog.CreditPT
	if c.composed != "" {
		c.composed += " " + credits
	} else {
		c.composed = credits
	}
	return c.composed
}

// State returns a copy of the console contents
func (c *Console) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	picks := make(Picks, len(c.picks))
	for k, v := range c.picks {
		picks[k] = slices.Clone(v)
	}
	return State{
		Picks:      picks,
		CustomLine: c.customLine,
		Composed:   c.composed,
	}
}
