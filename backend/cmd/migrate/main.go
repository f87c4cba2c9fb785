package main

import (
	"context"
	"fmt"
	"os"

	"groupme-analyzer/backend/internal/graph"
	"groupme-analyzer/backend/pkg/config"
	apperrors "groupme-analyzer/backend/pkg/errors"
	"groupme-analyzer/backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var force bool

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Create the Neo4j constraints and indexes used for stored analyses",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Force migration even if already applied")

	err := cmd.ExecuteContext(context.Background())
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func migrate(ctx context.Context, force bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Get()

	if !cfg.GraphEnabled() {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}

	log.Info("Starting Neo4j schema migration...")
	repo, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	defer repo.Close()

	if !force {
		applied, err := repo.SchemaApplied(ctx)
		if err != nil {
			return err
		}
		if applied {
			log.Info("Migration already applied. Use --force to reapply.", zap.String("version", graph.SchemaVersion))
			return nil
		}
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return err
	}

	log.Info("Migration completed successfully!", zap.String("version", graph.SchemaVersion))
	return nil
}
