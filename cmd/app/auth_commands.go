package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "seed-authorization",
			Usage: "Load the default permissions and roles",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "clear",
					Usage: "Delete the existing permission catalog and roles first",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				seedUseCase, err := container.SeedUseCase()
				if err != nil {
					return err
				}

				return commands.RunSeedAuthorization(
					ctx,
					seedUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("clear"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-expired-revocations",
			Usage: "Delete revocation records of tokens that have already expired",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many records would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredRevocations(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
