package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/relview/internal/logging"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove sessions in the configured session backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No active sessions found.")
			return nil
		}

		fmt.Println("Active Sessions:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a session document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := st.store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		hasError := false
		for _, id := range args {
			if err := st.store.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing '%s': %v\n", id, err)
				hasError = true
				continue
			}
			fmt.Printf("Removed session '%s'\n", id)
		}
		if hasError {
			return fmt.Errorf("some sessions could not be removed")
		}
		return nil
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove sessions idle for longer than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		olderThan, _ := cmd.Flags().GetDuration("older-than")
		removed, err := st.manager(logging.NewNop()).Prune(cmd.Context(), olderThan)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d session(s)\n", removed)
		return nil
	},
}

func init() {
	sessionPruneCmd.Flags().Duration("older-than", 24*time.Hour, "Idle time after which a session is removed")

	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionPruneCmd)
}

func openFromFlags(cmd *cobra.Command) (*storage, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStorage(cmd.Context(), cfg, logging.NewNop())
}
