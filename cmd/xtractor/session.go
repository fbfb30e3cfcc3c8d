package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"xtractor/pkg/config"
	"xtractor/pkg/session"
	"xtractor/pkg/ui"
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the saved login session",
}

// sessionStatusCmd represents the session status command
var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a usable session exists",
	RunE:  runSessionStatus,
}

// sessionClearCmd represents the session clear command
var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved session, forcing a fresh login",
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

func sessionStore() (*session.Store, error) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return nil, err
	}
	return session.NewStore(cfg.Session.File, cfg.Session.MaxAge), nil
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	store, err := sessionStore()
	if err != nil {
		return err
	}

	sess, err := store.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		ui.PrintWarning("No usable session; the next run will require a login")
		return nil
	}

	ui.PrintSuccess("Session is usable")
	ui.PrintInfo("Created", sess.Timestamp.Format(time.RFC1123))
	ui.PrintInfo("Age", sess.Age(time.Now()).Round(time.Minute).String())
	ui.PrintInfo("Cookies", fmt.Sprintf("%d", len(sess.Cookies)))
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	store, err := sessionStore()
	if err != nil {
		return err
	}

	if err := store.Delete(); err != nil {
		ui.PrintError("Failed to delete session", err.Error())
		return err
	}
	ui.PrintSuccess("Session cleared")
	return nil
}
