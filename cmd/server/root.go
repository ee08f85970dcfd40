package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"vision-board-backend/internal/database"
	"vision-board-backend/internal/logging"
)

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "DreamCanvas API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(newMigrateCommand())
	return rootCmd
}

func newServeCommand() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), serveOptions{SkipMigrations: skipMigrations})
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on startup")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	var databaseURL, logLevel string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return errors.New("DATABASE_URL or --database-url is required")
			}
			logger, err := logging.New(logLevel, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			migrator, err := database.NewMigrator(databaseURL, logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			if err := migrator.Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info("migrations completed", zap.String("database", "postgres"))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	return cmd
}
