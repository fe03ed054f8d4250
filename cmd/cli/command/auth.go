package command

// auth.go handles authentication commands: login, register, logout.

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"socialhub/cmd/cli/authentication"
)

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the socialhub API server. Supports login, registration, logout.`,
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		api := newAPIClient()
		resp, err := api.Register(context.Background(), username, password)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		if err := authentication.StoreTokens(&authentication.StoredCredentials{
			AccessToken: resp.Token,
			UserID:      resp.UserID,
			Username:    resp.Username,
		}); err != nil {
			return fmt.Errorf("could not store credentials: %w", err)
		}

		fmt.Printf("✓ Registered and logged in as %s\n", resp.Username)
		return nil
	},
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		api := newAPIClient()
		resp, err := api.Login(context.Background(), username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := authentication.StoreTokens(&authentication.StoredCredentials{
			AccessToken: resp.Token,
			UserID:      resp.UserID,
			Username:    resp.Username,
		}); err != nil {
			return fmt.Errorf("could not store credentials: %w", err)
		}

		fmt.Println("✓ Successfully logged in!")
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and forget stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return fmt.Errorf("could not clear credentials: %w", err)
		}
		fmt.Println("✓ Successfully logged out.")
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringP("username", "u", "", "account username")
		c.Flags().StringP("password", "p", "", "account password")
		c.MarkFlagRequired("username")
		c.MarkFlagRequired("password")
	}

	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(authCmd)
}
