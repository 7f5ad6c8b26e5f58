package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/db"
	"github.com/spf13/cobra"
)

// logoutCmd clears the stored tokens; saved login credentials survive unless
// --forget is given.
func logoutCmd() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Logout and delete the stored tokens",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if err := newTokenManager().ClearTokens(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clear tokens")
				cmd.PrintErrln("Error:", err)
				return
			}
			if forget {
				if err := db.NewCredStore(db.Db).Delete(ctx); err != nil {
					cmd.PrintErrln("Warning: Failed to delete saved credentials:", err)
				}
			}
			cmd.Println("Logged out.")
		},
	}

	cmd.Flags().BoolVarP(&forget, "forget", "f", false, "Also delete saved email and password? [true, false]")

	return cmd
}
