package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/internal/service"
)

var tokenFlags struct {
	name  string
	email string
	role  string
	id    string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a teacher or administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logr, err := bootstrap()
		if err != nil {
			return err
		}
		defer logr.Sync() //nolint:errcheck

		auth := service.NewAuthService(nil, logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		})
		token, expires, err := auth.IssueToken(service.IssueTokenRequest{
			UserID:   tokenFlags.id,
			FullName: tokenFlags.name,
			Email:    tokenFlags.email,
			Role:     models.UserRole(tokenFlags.role),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format("2006-01-02 15:04 MST"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.name, "name", "", "full name recorded as the teacher of roll calls")
	tokenCmd.Flags().StringVar(&tokenFlags.email, "email", "", "e-mail address")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", string(models.RoleTeacher), "ADMIN or TEACHER")
	tokenCmd.Flags().StringVar(&tokenFlags.id, "id", "", "user id (random when empty)")
	_ = tokenCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(tokenCmd)
}
