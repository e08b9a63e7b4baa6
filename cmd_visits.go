package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var visitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "Manage tracked visits",
}

var visitsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete visits older than tracking.retention_days",
	Args:  cobra.NoArgs,
	RunE:  runVisitsPrune,
}

func init() {
	visitsCmd.AddCommand(visitsPruneCmd)
}

func runVisitsPrune(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := pruneVisits(cmd.Context(), repo)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d visits older than %d days\n", removed, cfg.Tracking.RetentionDays)
	return nil
}
