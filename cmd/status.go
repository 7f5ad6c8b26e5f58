package cmd

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/auth"
	"github.com/spf13/cobra"
)

// statusCmd reports the authentication state without touching the network.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the authentication status",
		Run: func(cmd *cobra.Command, args []string) {
			status, err := newTokenManager().GetTokenStatus(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("Failed to read token status")
				cmd.PrintErrln("Error:", err)
				return
			}

			switch status.State() {
			case auth.StateAuthenticated:
				cmd.Printf("Authenticated (domain %s, token valid until %s).\n",
					status.Domain, status.ExpiresAt.Local().Format(time.RFC1123))
			case auth.StateNeedsRefresh:
				cmd.Printf("Session expired (domain %s); it will be refreshed automatically on the next request.\n",
					status.Domain)
			case auth.StateNeedsReauthentication:
				cmd.Println("Not logged in. Run `gconnect login` to authenticate.")
			}
		},
	}
}
