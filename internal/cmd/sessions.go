package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roundtable-dev/roundtable/internal/checkpoint"
	"github.com/roundtable-dev/roundtable/internal/config"
	"github.com/roundtable-dev/roundtable/internal/logging"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted discussion sessions",
	Long:  `Commands for listing and deleting checkpointed discussion sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all checkpointed sessions",
	Long: `List all sessions with a readable checkpoint, most recently
updated first, with their topic, turn count, and consensus status.`,
	RunE: runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session's checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func openStore() (*checkpoint.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return checkpoint.NewStore(cfg.StateDir(), logging.NopLogger())
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	infos, err := store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	for _, info := range infos {
		status := "in progress"
		if info.ConsensusReached {
			status = "consensus"
		}
		fmt.Printf("%s  %s\n  %s\n",
			roleNameStyle.Render(info.SessionID),
			dimStyle.Render(fmt.Sprintf("turn %d, %s, updated %s",
				info.Turn, status, info.UpdatedAt.Format("2006-01-02 15:04"))),
			info.Topic)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}
