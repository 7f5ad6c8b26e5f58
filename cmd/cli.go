package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/db"
	"github.com/spf13/cobra"
)

// domainFlag selects the regional host family tokens are issued against.
var domainFlag string

func Execute() {
	rootCmd := createRootCmd()
	initializeDatabase()
	defer closeDatabase()

	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")
	rootCmd.PersistentFlags().StringVar(&domainFlag, "domain", "garmin.com", "Garmin domain to authenticate against [garmin.com, garmin.cn]")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gconnect",
		Short: "A Garmin Connect client for the terminal",
	}

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		profileCmd(),
		devicesCmd(),
		divesCmd(),
		downloadCmd(),
		fileCmd(),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func initializeDatabase() {
	if err := db.InitDB(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		os.Exit(1)
	}
}

func closeDatabase() {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database.")
		os.Exit(1)
	}
}
