package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"excel_analytics/internal/config"
	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down> [steps]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "up":
			return config.RunMigrations(cfg.Database)
		case "down":
			steps := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid steps %q", args[1])
				}
				steps = n
			}
			if err := config.MigrateDown(cfg.Database, steps); err != nil {
				return err
			}
			slog.Info("Migrations rolled back", "steps", steps)
			return nil
		default:
			return fmt.Errorf("unknown migrate direction %q, use up or down", args[0])
		}
	},
}

var promoteRole string

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Set the role of an existing user (admin by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := model.ParseRole(promoteRole)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		dbPool, err := config.ConnectDB(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		email := strings.ToLower(strings.TrimSpace(args[0]))
		userRepo := repository.NewUserRepository(dbPool)
		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user with email %s", email)
		}
		if err := userRepo.SetRoleByEmail(ctx, email, role); err != nil {
			return err
		}
		slog.Info("User role updated", "email", email, "role", role)
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteRole, "role", string(model.RoleAdmin), "role to assign: user or admin")
}
