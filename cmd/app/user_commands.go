package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
	"github.com/allisson/gatekeeper/internal/app"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	"github.com/allisson/gatekeeper/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-admin",
			Usage: "Create an active user holding an administrative role",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address used to log in",
				},
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Initial password",
				},
				&cli.StringFlag{
					Name:     "first-name",
					Required: true,
					Usage:    "First name",
				},
				&cli.StringFlag{
					Name:     "last-name",
					Required: true,
					Usage:    "Last name",
				},
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   authDomain.RoleAdministrator,
					Usage:   "Role name to assign",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				roleRepository, err := container.RoleRepository()
				if err != nil {
					return err
				}

				return commands.RunCreateAdmin(
					ctx,
					userUseCase,
					roleRepository,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.CreateAdminInput{
						Email:     cmd.String("email"),
						Password:  cmd.String("password"),
						FirstName: cmd.String("first-name"),
						LastName:  cmd.String("last-name"),
						Role:      cmd.String("role"),
					},
					cmd.String("format"),
				)
			},
		},
	}
}
