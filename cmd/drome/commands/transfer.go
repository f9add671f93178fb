package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/benvon/lingua-drome/internal/catalog"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog or the project file",
	}
	cmd.AddCommand(newExportCatalogCmd(opts), newExportProjectCmd(opts))
	return cmd
}

func newExportCatalogCmd(opts *rootOptions) *cobra.Command {
	var (
		out    string
		render bool
		width  int
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Export the Markdown catalog",
		Long:  "Write the Markdown catalog to --out (use - for stdout). --render prints it styled for the terminal instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				e := catalog.CatalogExport(s.store.Snapshot(), s.store.Phase())
				if render {
					styled, err := catalog.Render(string(e.Body), width)
					if err != nil {
						return err
					}
					_, err = io.WriteString(cmd.OutOrStdout(), styled)
					return err
				}
				return writeExport(cmd, out, e)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", catalog.CatalogFilename, "Output file, - for stdout")
	cmd.Flags().BoolVar(&render, "render", false, "Render for the terminal instead of writing a file")
	cmd.Flags().IntVar(&width, "width", 80, "Word wrap width for --render")
	return cmd
}

func newExportProjectCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Export the JSON project file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				e, err := catalog.ProjectExport(s.store.Snapshot())
				if err != nil {
					return err
				}
				return writeExport(cmd, out, e)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", catalog.ProjectFilename, "Output file, - for stdout")
	return cmd
}

func writeExport(cmd *cobra.Command, out string, e catalog.Export) error {
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(e.Body)
		return err
	}
	if err := os.WriteFile(out, e.Body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", out, len(e.Body))
	return nil
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the project with an exported project file",
		Long:  "Load a project file written by 'export project'. A malformed file is rejected and the project is left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				if err := s.store.Load(ctx, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d assets\n", len(s.store.Assets()))
				return nil
			})
		},
	}
}
