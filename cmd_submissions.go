package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ybj/termfolio/internal/contact"
	"github.com/ybj/termfolio/internal/store"
)

var submissionsLimit int

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Inspect and redeliver contact submissions",
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent submissions",
	Args:  cobra.NoArgs,
	RunE:  runSubmissionsList,
}

var submissionsRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Redeliver undelivered submissions now",
	Long: `Redeliver every failed or pending submission that is still below
contact.max_attempts, using the configured transport.`,
	Args: cobra.NoArgs,
	RunE: runSubmissionsRetry,
}

func init() {
	submissionsListCmd.Flags().IntVarP(&submissionsLimit, "limit", "n", 20, "Number of submissions to show")
	submissionsRetryCmd.Flags().IntVarP(&submissionsLimit, "limit", "n", 50, "Maximum submissions to retry")

	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsRetryCmd)
}

func runSubmissionsList(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := cmd.Context()
	subs, err := repo.RecentSubmissions(ctx, submissionsLimit)
	if err != nil {
		return err
	}
	counts, err := repo.CountSubmissions(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECEIVED\tSTATUS\tATTEMPTS\tFROM\tLAST ERROR")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s <%s>\t%s\n",
			s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Status, s.Attempts,
			s.Name, s.Email, truncate(s.LastError, 60))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\npending %d, delivered %d, failed %d\n",
		counts[store.StatusPending], counts[store.StatusDelivered], counts[store.StatusFailed])
	return nil
}

func runSubmissionsRetry(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := newContactService(repo)
	delivered, failed, err := svc.RetryPending(cmd.Context(), time.Now(), submissionsLimit)
	if errors.Is(err, contact.ErrNotConfigured) {
		return fmt.Errorf("cannot retry: %w (set contact.transport and its settings)", err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "delivered %d, failed %d\n", delivered, failed)
	return nil
}

// truncate flattens s to one line of at most n runes.
func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
