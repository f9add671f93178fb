package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/prompt"
	"github.com/benvon/lingua-drome/internal/validation"
	"github.com/spf13/cobra"
)

func newPromptCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Compose generation prompts",
	}
	cmd.AddCommand(newPromptComposeCmd(opts))
	return cmd
}

// parsePick splits "category=value"
func parsePick(raw string) (models.Category, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", "", fmt.Errorf("invalid pick %q: expected category=value", raw)
	}
	key = strings.TrimSpace(key)
	if err := validation.ValidateCategory(key); err != nil {
		return "", "", err
	}
	return models.Category(key), value, nil
}

func newPromptComposeCmd(opts *rootOptions) *cobra.Command {
	var (
		picks   []string
		custom  string
		phase   string
		credits bool
		apply   string
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a prompt from vocabulary picks",
		Long: `Compose a prompt from the scene sentence of a phase, the picked vocabulary
entries and a custom line, e.g.

  drome prompt compose --pick material="wooden panel" --pick psychic=trance --apply <id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := prompt.NewConsole()
			for _, raw := range picks {
				c, v, err := parsePick(raw)
				if err != nil {
					return err
				}
				if _, err := console.Toggle(c, v); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("custom") {
				console.SetCustomLine(custom)
			}
			if phase != "" {
				if err := validation.ValidatePhase(phase); err != nil {
					return err
				}
			}

			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				p := s.store.Phase()
				if phase != "" {
					p = models.Phase(phase)
				}
				console.Compose(p)
				if credits {
					console.AppendCredits()
				}
				fmt.Fprintln(cmd.OutOrStdout(), console.Composed())

				if apply == "" {
					return nil
				}
				if err := s.store.Select(apply); err != nil {
					return fmt.Errorf("failed to select %s: %w", apply, err)
				}
				a, err := s.store.ApplyPrompt(ctx, console.Composed())
				if err != nil {
					return fmt.Errorf("failed to apply prompt: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Applied prompt to %s\n", a.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&picks, "pick", nil, "Vocabulary pick as category=value (repeatable)")
	cmd.Flags().StringVar(&custom, "custom", prompt.DefaultCustomLine, "Custom line appended to the prompt")
	cmd.Flags().StringVar(&phase, "phase", "", "Phase for the scene sentence (default: session phase)")
	cmd.Flags().BoolVar(&credits, "credits", false, "Append the credit lines")
	cmd.Flags().StringVar(&apply, "apply", "", "Store the prompt on the asset with this id")
	return cmd
}
