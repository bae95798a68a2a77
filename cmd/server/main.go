package main

import (
	"context"
	"log/slog"
	"os"

	"excel_analytics/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "excel-analytics",
	Short: "Excel Analytics API server",
	Long: `Excel Analytics accepts spreadsheet uploads, stores their rows and
builds chart configurations from selected columns.

Examples:
  excel-analytics serve
  excel-analytics migrate up
  excel-analytics migrate down 1
  excel-analytics promote admin@example.com`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file
		if err := godotenv.Load(); err != nil {
			slog.Info("No .env file found or error loading, relying on environment variables")
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	RunE: runServe,
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rootCmd.AddCommand(serveCmd, migrateCmd, promoteCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
