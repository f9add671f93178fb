package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/benvon/lingua-drome/internal/catalog"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import image and video files as assets",
		Long:  "Create one asset per image or video file. Other files are skipped. New assets are placed first.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]project.FileHandle, 0, len(args))
			for _, path := range args {
				f, err := project.NewDiskFile(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				created, err := s.store.ImportFiles(ctx, files)
				if err != nil {
					return fmt.Errorf("failed to import files: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d of %d files\n", len(created), len(files))
				for _, a := range created {
					fmt.Fprintf(out, "  %s  %s (%s)\n", a.ID, a.Name, a.Type)
				}
				return nil
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assets in project order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				assets := s.store.Assets()
				if len(assets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No assets")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tID\tTYPE\tPHASE\tNAME")
				for i, a := range assets {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, a.ID, a.Type, a.Phase, a.Name)
				}
				return tw.Flush()
			})
		},
	}
}

// assetDoc is the YAML shape printed by show
type assetDoc struct {
	ID       string              `yaml:"id"`
	Name     string              `yaml:"name"`
	Type     string              `yaml:"type"`
	Phase    string              `yaml:"phase"`
	Timecode string              `yaml:"timecode,omitempty"`
	Notes    string              `yaml:"notes,omitempty"`
	Prompt   string              `yaml:"prompt,omitempty"`
	Tags     map[string][]string `yaml:"tags,omitempty"`
}

func newAssetDoc(a models.Asset) assetDoc {
	doc := assetDoc{
		ID:     a.ID,
		Name:   a.Name,
		Type:   string(a.Type),
		Phase:  string(a.Phase),
		Notes:  a.Notes,
		Prompt: a.Prompt,
	}
	if a.Timecode != nil {
		doc.Timecode = catalog.FormatTimecode(*a.Timecode) + "s"
	}
	for _, c := range models.Categories {
		if values := a.Tags[c]; len(values) > 0 {
			if doc.Tags == nil {
				doc.Tags = make(map[string][]string)
			}
			doc.Tags[string(c)] = values
		}
	}
	return doc
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				a, ok := s.store.Get(args[0])
				if !ok {
					return fmt.Errorf("asset not found: %s", args[0])
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(newAssetDoc(a)); err != nil {
					return fmt.Errorf("failed to print asset: %w", err)
				}
				return enc.Close()
			})
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		name, phase, notes, promptText string
		timecode                       float64
		clearTimecode                  bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit asset fields",
		Long:  "Edit the name, phase, timecode, notes or prompt of an asset. Only the given flags change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch project.AssetPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				n := validation.SanitizeText(name)
				if n == "" {
					return fmt.Errorf("--name cannot be empty")
				}
				patch.Name = &n
			}
			if flags.Changed("phase") {
				if err := validation.ValidatePhase(phase); err != nil {
					return err
				}
				p := models.Phase(phase)
				patch.Phase = &p
			}
			if flags.Changed("timecode") {
				if timecode < 0 {
					return fmt.Errorf("--timecode must not be negative")
				}
				patch.Timecode = &timecode
			}
			patch.ClearTimecode = clearTimecode
			if flags.Changed("notes") {
				n := validation.StripControl(notes)
				patch.Notes = &n
			}
			if flags.Changed("prompt") {
				p := validation.StripControl(promptText)
				patch.Prompt = &p
			}

			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				a, found, err := s.store.Update(ctx, args[0], patch)
				if err != nil {
					return fmt.Errorf("failed to update asset: %w", err)
				}
				if !found {
					return fmt.Errorf("asset not found: %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", a.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Asset name")
	cmd.Flags().StringVar(&phase, "phase", "", "Phase (rhizome, ellipse, fold)")
	cmd.Flags().Float64Var(&timecode, "timecode", 0, "Timecode in seconds")
	cmd.Flags().BoolVar(&clearTimecode, "clear-timecode", false, "Remove the timecode")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	cmd.Flags().StringVar(&promptText, "prompt", "", "Prompt text")
	cmd.MarkFlagsMutuallyExclusive("timecode", "clear-timecode")
	return cmd
}

func newTagCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <category> <tags>",
		Short: "Replace one tag category of an asset",
		Long:  "Replace the tags of one category from comma-separated input, e.g. drome tag <id> colors \"red, blue\".",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateCategory(args[1]); err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				a, found, err := s.store.SetTag(ctx, args[0], models.Category(args[1]), args[2])
				if err != nil {
					return fmt.Errorf("failed to update tags: %w", err)
				}
				if !found {
					return fmt.Errorf("asset not found: %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", a.Name, args[1], a.Tags[models.Category(args[1])])
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an asset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				removed, err := s.store.Remove(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to remove asset: %w", err)
				}
				if !removed {
					return fmt.Errorf("asset not found: %s", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed", args[0])
				return nil
			})
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the project without --yes")
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				n := len(s.store.Assets())
				if err := s.store.Clear(ctx); err != nil {
					return fmt.Errorf("failed to clear project: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d assets\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm removing every asset")
	return cmd
}
