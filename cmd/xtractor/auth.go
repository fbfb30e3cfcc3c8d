package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xtractor/pkg/auth"
	"xtractor/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage login credentials",
	Long: `Manage stored login credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (XTRACTOR_USERNAME / XTRACTOR_PASSWORD, read-only)

The stored username prefills the interactive login form. Storing the
password is optional; it is never typed into the page automatically.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store login credentials securely",
	Example: `  # Interactive credential entry
  xtractor auth login

  # Store credentials for a specific username
  xtractor auth login myhandle`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Credential storage unavailable", err.Error())
		return err
	}

	username := ""
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		username, err = ui.Prompt("Username")
		if err != nil {
			return err
		}
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	password, err := ui.PromptSecret("Password (optional, Enter to skip)")
	if err != nil {
		return err
	}

	account := &auth.Account{Username: username, Password: password}
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		return err
	}

	ui.PrintSuccess("Credentials stored for " + username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Credential storage unavailable", err.Error())
		return err
	}

	if err := manager.Delete(args[0]); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		return err
	}

	ui.PrintSuccess("Credentials removed for " + args[0])
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Credential storage unavailable", err.Error())
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		return nil
	}

	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		detail := "no password stored"
		if sanitized.Password != "" {
			detail = "password stored"
		}
		ui.PrintInfo(sanitized.Username, fmt.Sprintf("%s (updated %s)",
			detail, sanitized.LastModified.Format("2006-01-02")))
	}
	return nil
}
