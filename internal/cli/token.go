package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"heritage-quiz-service/internal/config"
	"heritage-quiz-service/internal/domain"
	transport "heritage-quiz-service/internal/transport/http"
)

// NewTokenCmd prints a signed bearer token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		sub  string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with auth.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			auth, err := transport.NewAuthenticator(cfg.Auth.JWTSecret)
			if err != nil {
				return err
			}
			token, err := auth.Issue(sub, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "user id")
	cmd.Flags().StringVar(&role, "role", domain.RoleUser, "user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
