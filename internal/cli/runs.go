package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/rdxrw/internal/db"
	"github.com/raphaelgruber/rdxrw/internal/models"
)

var (
	runsStatus string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List or inspect recorded runs",
	Long: `List the reweighting runs recorded in the ledger, or show one run by ID.
Requires RDXRW_LEDGER_URL.

Examples:
  rdxrw runs                    # List recent runs
  rdxrw runs --status failed    # Only failed runs
  rdxrw runs 3f2a9c1e           # Show details for one run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (pending, running, completed, failed)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "max results")
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := requireLedger(); err != nil {
		return err
	}
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		return showRun(ctx, w, args[0])
	}
	return listRuns(ctx, w)
}

func listRuns(ctx context.Context, w io.Writer) error {
	runs, err := ledger.ListRuns(ctx, runsStatus, runsLimit)
	if err != nil {
		return err
	}
	printRuns(w, runs)
	return nil
}

func printRuns(w io.Writer, runs []models.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return
	}

	fmt.Fprintf(w, "%-10s %-10s %-14s %-24s %s\n", "ID", "STATUS", "PROGRESS", "TREE", "STARTED")
	fmt.Fprintln(w, "--------------------------------------------------------------------------------")
	for _, r := range runs {
		progress := ""
		if r.Total > 0 {
			progress = fmt.Sprintf("%d/%d", r.Progress, r.Total)
		}
		started := r.StartedAt.Local().Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%-10s %-10s %-14s %-24s %s\n", r.Key(), r.Status, progress, r.Tree, started)
	}
}

func showRun(ctx context.Context, w io.Writer, id string) error {
	run, err := ledger.GetRun(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return err
	}
	printRun(w, run)
	return nil
}

func printRun(w io.Writer, r *models.Run) {
	fmt.Fprintf(w, "Run: %s\n", r.Key())
	fmt.Fprintf(w, "  Status: %s\n", r.Status)
	fmt.Fprintf(w, "  Input: %s\n", r.Input)
	fmt.Fprintf(w, "  Tree: %s\n", r.Tree)
	fmt.Fprintf(w, "  Output: %s\n", r.Output)
	if r.Total > 0 {
		fmt.Fprintf(w, "  Progress: %d/%d\n", r.Progress, r.Total)
	}
	fmt.Fprintf(w, "  Started: %s\n", r.StartedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		fmt.Fprintf(w, "  Completed: %s\n", r.CompletedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "  Duration: %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Second))
	}
	if r.Seen > 0 {
		fmt.Fprintf(w, "  Candidates: %d\n", r.Seen)
		fmt.Fprintf(w, "  Weighted: %d (%.2f%%)\n", r.Weighted, 100*float64(r.Weighted)/float64(r.Seen))
	}
	if r.Error != nil && *r.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", *r.Error)
	}
}
