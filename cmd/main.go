// cmd/main.go
package main

import (
	"fmt"
	"os"

	"saveai-api/config"
	"saveai-api/logger"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "saveai"

var configDir string

// @title           SaveAI Transaction API
// @version         1.0
// @description     Records financial transactions with blockchain attestation, VAT reporting and spending analytics.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "SaveAI transaction API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(configDir); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Init()
			if _, err := maxprocs.Set(maxprocs.Logger(logger.Log.Infof)); err != nil {
				logger.Log.WithError(err).Warn("Failed to set GOMAXPROCS")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yml")

	serve := serveCommand()
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(tokenCommand())
	rootCmd.AddCommand(workflowCommand())

	if err := rootCmd.Execute(); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
