// Package commands implements the drome command line.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/lingua-drome/internal/config"
	"github.com/benvon/lingua-drome/internal/kv"
	"github.com/benvon/lingua-drome/internal/logger"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	storeURL string
	debug    bool
}

// NewRootCmd creates the drome command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "drome",
		Short:         "Manage a Língua Drome project",
		Long:          "Import media, tag assets, compose prompts and export the catalog of a Língua Drome project.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.storeURL, "store", "", "Project store URL (overrides DROME_STORE_URL)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newImportCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newUpdateCmd(opts),
		newTagCmd(opts),
		newRemoveCmd(opts),
		newClearCmd(opts),
		newExportCmd(opts),
		newLoadCmd(opts),
		newTokensCmd(opts),
		newPromptCmd(opts),
	)
	return cmd
}

// session is one opened project
type session struct {
	kv     kv.Store
	store  *project.Store
	logger *zap.Logger
}

func openSession(ctx context.Context, opts *rootOptions) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.storeURL != "" {
		cfg.StoreURL = opts.storeURL
	}

	log, err := logger.NewCLILogger(opts.debug || cfg.ServerDebugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	kvStore, err := kv.Open(ctx, cfg.StoreURL, kv.OpenOptions{
		Attempts: uint(cfg.StoreConnectAttempts),
		Delay:    cfg.StoreConnectDelay,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	store, err := project.Open(ctx, kvStore, project.WithLogger(log), project.WithPhase(cfg.Phase))
	if err != nil {
		_ = kvStore.Close()
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	return &session{kv: kvStore, store: store, logger: log}, nil
}

func (s *session) Close() error {
	err := errors.Join(s.store.Close(), s.kv.Close())
	_ = logger.Sync(s.logger)
	return err
}

// withSession opens the project, runs fn and closes the project again
func withSession(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, s *session) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close project: %w", closeErr)
		}
	}()
	return fn(ctx, s)
}
