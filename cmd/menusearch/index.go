package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/db"
	searchrepo "github.com/kailas-cloud/menusearch/internal/repository/search"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Manage the RediSearch menu index used by the redis search driver",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create the menu index if it does not exist",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "prefix",
						Usage: "hash key prefixes to index",
						Value: []string{searchrepo.DefaultPrefix},
					},
				},
				Action: runIndexCreate,
			},
			{
				Name:   "drop",
				Usage:  "Drop the menu index (indexed hashes are kept)",
				Action: runIndexDrop,
			},
		},
	}
}

func runIndexCreate(ctx context.Context, c *cli.Command) error {
	cfg, logger, err := bootstrap("index")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.RequireIndex(); err != nil {
		return fmt.Errorf("invalid index config: %w", err)
	}

	store, err := openRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	def, err := searchrepo.MenuIndex(cfg.Search.Index, c.StringSlice("prefix")...)
	if err != nil {
		return err
	}
	created, err := searchrepo.EnsureIndex(ctx, store, def)
	if err != nil {
		return err
	}

	logger.Info("Menu index ready",
		zap.String("index", def.Name),
		zap.Strings("prefixes", c.StringSlice("prefix")),
		zap.Bool("created", created),
	)
	return nil
}

func runIndexDrop(ctx context.Context, _ *cli.Command) error {
	cfg, logger, err := bootstrap("index")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.RequireIndex(); err != nil {
		return fmt.Errorf("invalid index config: %w", err)
	}

	store, err := openRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DropIndex(ctx, cfg.Search.Index); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			logger.Info("Menu index does not exist", zap.String("index", cfg.Search.Index))
			return nil
		}
		return fmt.Errorf("drop index %s: %w", cfg.Search.Index, err)
	}

	logger.Info("Menu index dropped", zap.String("index", cfg.Search.Index))
	return nil
}
