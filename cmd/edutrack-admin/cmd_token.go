package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/edutrack/adminportal/internal/pkg/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a super admin access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			email := strings.TrimSpace(opts.email)
			if email == "" {
				email = cfg.SuperAdmin.Email
			}
			if !strings.EqualFold(email, cfg.SuperAdmin.Email) {
				return fmt.Errorf("%s is not the configured super admin", email)
			}

			jwtService := auth.NewJWTService(auth.JWTConfig{
				SecretKey:      cfg.JWT.Secret,
				AccessTokenExp: cfg.AccessTokenTTL(),
				TokenIssuer:    cfg.JWT.Issuer,
			})
			token, expiresAt, err := jwtService.GenerateToken(email, auth.RoleSuperAdmin)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "# expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "super admin email (defaults to super_admin.email)")
	return cmd
}
