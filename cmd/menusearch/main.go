package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/menusearch/internal/config"
	"github.com/kailas-cloud/menusearch/internal/version"
)

func main() {
	app := &cli.Command{
		Name:  "menusearch",
		Usage: "Restaurant menu search, upload and entity extraction services",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before the config (default: .env when present)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, config.LoadDotEnv(c.String("env-file"))
		},
		Commands: []*cli.Command{
			serveCommand(),
			skillCommand(),
			indexCommand(),
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Printf("menusearch %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
