package main

import (
	"encoding/json"
	"fmt"

	"saveai-api/config"
	"saveai-api/model"
	"saveai-api/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// tokenCommand mints an access token offline, which is how the first admin
// token is obtained before any exists to call the token endpoint with.
func tokenCommand() *cobra.Command {
	var (
		userID      string
		permissions []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.AppConfig.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			for _, p := range permissions {
				if !model.ValidPermission(p) {
					return fmt.Errorf("unknown permission %q", p)
				}
			}

			tokens := service.NewSecurityService(nil, service.SecurityConfigFromApp())
			resp, err := tokens.GenerateToken(id, permissions)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID (UUID) the token is issued for")
	cmd.Flags().StringSliceVar(&permissions, "permission", []string{model.PermissionTransactionsRead, model.PermissionTransactionsWrite}, "permission to grant (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
