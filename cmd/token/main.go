// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command token mints access tokens for the taxonomy API.
//
// The API has no login flow: operators and the sites of the network call it
// with tokens issued here. The role sets the default term capabilities and
// --cap adds custom ones declared by individual taxonomies.
//
//	JWT_PRIVATE_KEY_PATH=... JWT_PUBLIC_KEY_PATH=... \
//	  token issue --user editor-7 --role editor --cap manage_genres --ttl 12h
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/taibuivan/multitax/internal/platform/constants"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

type keyPaths struct {
	Private string `env:"JWT_PRIVATE_KEY_PATH"`
	Public  string `env:"JWT_PUBLIC_KEY_PATH,required"`
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "token",
		Short:        "Mint and inspect multitax access tokens",
		SilenceUsage: true,
	}
	root.AddCommand(issueCommand(), inspectCommand())
	return root
}

func issueCommand() *cobra.Command {
	var (
		grant sec.Grant
		role  string
		ttl   time.Duration
	)

	command := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a user and role",
		RunE: func(command *cobra.Command, _ []string) error {
			service, err := loadService()
			if err != nil {
				return err
			}

			grant.Role = sec.UserRole(role)
			token, err := service.Issue(grant, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(command.OutOrStdout(), token)
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVar(&grant.UserID, "user", "", "user ID written to the uid and sub claims")
	flags.StringVar(&grant.Username, "name", "", "display name")
	flags.StringVar(&role, "role", string(sec.RoleAuthor), "admin, editor, author or member")
	flags.StringSliceVar(&grant.Capabilities, "cap", nil, "extra capability, repeatable")
	flags.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = command.MarkFlagRequired("user")
	return command
}

func inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect TOKEN",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			service, err := loadService()
			if err != nil {
				return err
			}

			claims, err := service.VerifyToken(args[0])
			if err != nil {
				return err
			}

			out := command.OutOrStdout()
			fmt.Fprintf(out, "user:         %s (%s)\n", claims.UserID, claims.Username)
			fmt.Fprintf(out, "role:         %s\n", claims.Role)
			fmt.Fprintf(out, "capabilities: %v\n", claims.Capabilities)
			fmt.Fprintf(out, "expires:      %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
			for _, capability := range []string{sec.CapManageTerms, sec.CapEditTerms, sec.CapDeleteTerms, sec.CapAssignTerms} {
				fmt.Fprintf(out, "  %-24s %t\n", capability, claims.Can(capability))
			}
			return nil
		},
	}
}

// loadService reads the key paths from the environment. Without
// JWT_PRIVATE_KEY_PATH only inspect works.
func loadService() (*sec.TokenService, error) {
	var paths keyPaths
	if err := env.Parse(&paths); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return sec.NewTokenService(paths.Private, paths.Public, constants.AuthIssuer)
}
