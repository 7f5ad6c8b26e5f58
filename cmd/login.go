package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sorenh/gconnect/client"
	"github.com/sorenh/gconnect/db"
	"github.com/spf13/cobra"
)

// loginCmd runs the SSO login flow and persists the resulting tokens.
func loginCmd() *cobra.Command {
	var saveCreds bool
	var freshCreds bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Garmin Connect",
		Long:  "Login to Garmin Connect using your email and password; prompts for an MFA code when the account requires one",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			credStore := db.NewCredStore(db.Db)

			var email, password string
			if !freshCreds {
				if saved, err := credStore.Get(ctx); err == nil && saved != nil {
					email, password = saved.Email, saved.Password
					cmd.Printf("Using saved credentials for %s.\n", email)
				}
			}
			if email == "" || password == "" {
				email = promptForInput("Email: ")
				password = promptForPassword("Password: ")
			}
			if email == "" || password == "" {
				cmd.PrintErrln("Error: Email and password cannot be empty.")
				return
			}

			cred, token, err := client.Login(ctx, client.LoginOptions{
				Domain:   domainFlag,
				Email:    email,
				Password: password,
				MFAHandler: func(ctx context.Context) (string, error) {
					return promptForInput("MFA code: "), nil
				},
			})
			if err != nil {
				log.Error().Err(err).Msg("Login failed")
				cmd.PrintErrln("Error:", err)
				return
			}

			if err := newTokenManager().SaveTokens(ctx, cred, token); err != nil {
				log.Error().Err(err).Msg("Failed to save tokens")
				cmd.PrintErrln("Error: Login succeeded but saving tokens failed:", err)
				return
			}
			if saveCreds {
				if err := credStore.Save(ctx, email, password); err != nil {
					cmd.PrintErrln("Warning: Failed to save credentials:", err)
				}
			}
			cmd.Println("Login was successful.")
		},
	}

	cmd.Flags().BoolVarP(&saveCreds, "save", "s", false, "Save email and password for later logins? [true, false]")
	cmd.Flags().BoolVarP(&freshCreds, "fresh", "f", false, "Ignore saved credentials and prompt again? [true, false]")

	return cmd
}
