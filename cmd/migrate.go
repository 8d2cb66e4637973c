package cmd

import (
	"github.com/spf13/cobra"

	"melodex/config"
	"melodex/db"
	"melodex/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize the database schema and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: cfg.LogLevel})

		if err := db.ConnectDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
		}
		logger.Info("Migration completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
