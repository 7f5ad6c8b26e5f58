package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sorenh/gconnect/auth"
	"github.com/sorenh/gconnect/client"
	"github.com/sorenh/gconnect/db"
	"golang.org/x/term"
)

// newTokenManager wires the token manager to the database-backed store and
// the network exchanger for the selected domain.
func newTokenManager() *auth.Manager {
	return auth.NewManager(db.NewTokenStore(db.Db), &client.Exchanger{Domain: domainFlag})
}

// newAPIClient builds an authenticated API client backed by a token manager.
func newAPIClient() *client.API {
	return &client.API{Domain: domainFlag, Tokens: newTokenManager()}
}

// promptForInput prompts the user for input and returns the trimmed string.
func promptForInput(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("Error: Failed to read input.")
		os.Exit(1)
	}
	return strings.TrimSpace(input)
}

// promptForPassword prompts the user for a password without echoing it.
func promptForPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println("Error: Failed to read password.")
		os.Exit(1)
	}
	fmt.Println()
	return strings.TrimSpace(string(password))
}
