package command

// root.go defines the root command for the socialhub CLI.
// Global flags and shared helpers live here.

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"socialhub/cmd/cli/authentication"
	"socialhub/internal/notify"
)

var (
	apiURL string // global flag for the API server URL
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "socialhub",
	Short: "socialhub - realtime notification client",
	Long: `socialhub keeps a live view of your notification feed: a persistent
stream connection with automatic reconnection, plus authoritative refreshes
so the local view never drifts from the server for long.

Use "socialhub [command] --help" to see all available commands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "API server URL")
}

// newAPIClient builds a REST client with the stored token attached when one exists
func newAPIClient() *notify.APIClient {
	api := notify.NewAPIClient(apiURL)
	if creds, err := authentication.GetTokens(); err == nil && creds.AccessToken != "" {
		api.SetToken(creds.AccessToken)
	}
	return api
}

// requireCreds loads stored credentials or fails with a hint
func requireCreds() (*authentication.StoredCredentials, error) {
	creds, err := authentication.GetTokens()
	if err != nil || creds.AccessToken == "" {
		return nil, fmt.Errorf("not logged in, run: socialhub auth login")
	}
	return creds, nil
}

// streamBase derives the websocket base URL from the API URL
func streamBase() string {
	base := strings.Replace(apiURL, "https://", "wss://", 1)
	return strings.Replace(base, "http://", "ws://", 1)
}
