package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status <job>",
	Short: "Show the status and recent cycles of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of recent cycles to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := configured(); err != nil {
		return err
	}
	if cliConfig.OpenStatus == nil {
		return errors.New("status store not configured")
	}
	settings, err := cliConfig.Settings.Load(args[0])
	if err != nil {
		return err
	}

	store, closeStore, err := cliConfig.OpenStatus(settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeStore == nil {
			return
		}
		if err := closeStore(); err != nil {
			cmd.PrintErrf("close: %v\n", err)
		}
	}()

	ctx := cmd.Context()
	status, err := store.GetStatus(ctx, settings.Name)
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}
	if status == nil {
		cmd.Printf("Job %s has never run.\n", settings.Name)
		return nil
	}

	cmd.Printf("Job:          %s\n", status.Name)
	cmd.Printf("Last run:     %s\n", formatTime(status.LastRun))
	cmd.Printf("Last success: %s\n", formatTime(status.LastSuccess))
	cmd.Printf("Next check:   %s\n", formatTime(status.NextCheck))
	cmd.Printf("Indexed:      %d\n", status.Indexed)
	cmd.Printf("Deleted:      %d\n", status.Deleted)
	if status.LastError != "" {
		cmd.Printf("Last error:   %s\n", status.LastError)
	}

	runs, err := store.History(ctx, settings.Name, statusLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}
	cmd.Println()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tRESULT\tINDEXED\tDELETED\tUNCHANGED\tFAILURES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			formatTime(run.StartedAt),
			run.EndedAt.Sub(run.StartedAt).Round(time.Millisecond),
			runResult(run),
			run.Indexed, run.Deleted, run.Unchanged, run.Failures)
	}
	return w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func runResult(run domain.CycleRun) string {
	if run.Success {
		return "ok"
	}
	return "failed"
}
