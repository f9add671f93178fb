package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/benvon/lingua-drome/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTokensCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Show or replace the prompt vocabulary",
	}
	cmd.AddCommand(newTokensShowCmd(opts), newTokensLoadCmd(opts))
	return cmd
}

// tokensDoc keeps categories in catalog order when printed
func tokensDoc(tokens models.Tokens) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range models.Categories {
		values, ok := tokens[c]
		if !ok {
			continue
		}
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, v := range values {
			list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: string(c)}, list)
	}
	return doc
}

func newTokensShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the vocabulary as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(tokensDoc(s.store.Tokens())); err != nil {
					return fmt.Errorf("failed to print vocabulary: %w", err)
				}
				return enc.Close()
			})
		},
	}
}

func newTokensLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Replace the vocabulary from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			tokens, err := models.ParseTokens(data)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) error {
				if err := s.store.SetTokens(ctx, tokens); err != nil {
					return fmt.Errorf("failed to update vocabulary: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d categories\n", len(tokens))
				return nil
			})
		},
	}
}
