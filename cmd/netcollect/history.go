package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect run and capture history",
}

// historyShowCmd resolves a run either by its numeric/UUID id (positional
// arg) or by its natural key, job slug plus started-at timestamp (--job and
// --at together). The natural key form lets an operator look up a run from
// a job's YAML slug and a log timestamp without ever having copied the run
// id down.
var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a single run's summary and the captures it wrote",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobSlug, _ := cmd.Flags().GetString("job")
		startedAtRaw, _ := cmd.Flags().GetString("at")

		if len(args) == 0 && (jobSlug == "" || startedAtRaw == "") {
			return collectorerr.New(collectorerr.ConfigError, "show requires either a run-id argument or both --job and --at")
		}

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "open store", err)
		}
		defer store.Close()

		var run *domain.Run
		if len(args) == 1 {
			run, err = store.GetRun(args[0])
		} else {
			var startedAt time.Time
			startedAt, err = time.Parse(time.RFC3339, startedAtRaw)
			if err != nil {
				return collectorerr.Wrap(collectorerr.ConfigError, "parse --at as RFC3339", err)
			}
			run, err = store.GetRunByNaturalKey(jobSlug, startedAt)
		}
		if err != nil {
			return err
		}

		fmt.Printf("run %s (job %s)\n", run.ID, run.JobSlug)
		fmt.Printf("  started:   %s\n", run.StartedAt.UTC().Format("2006-01-02T15:04:05Z"))
		fmt.Printf("  completed: %s\n", run.CompletedAt.UTC().Format("2006-01-02T15:04:05Z"))
		fmt.Printf("  status:    %s\n", run.Status)
		fmt.Printf("  devices:   %d total, %d success, %d failed, %d skipped\n", run.TotalDevices, run.Success, run.Failed, run.Skipped)
		if run.ErrorText != "" {
			fmt.Printf("  error:     %s\n", run.ErrorText)
		}

		captures, err := store.ListCapturesByRun(run.ID)
		if err != nil {
			return err
		}
		if len(captures) == 0 {
			fmt.Println("  no captures written")
			return nil
		}
		fmt.Println("  captures:")
		for _, c := range captures {
			score := "n/a"
			if c.Score != nil {
				score = fmt.Sprintf("%d", *c.Score)
			}
			fmt.Printf("    %-24s %-10s %6d bytes  score=%s  %s\n", c.DeviceName, c.Kind, c.Bytes, score, c.Path)
		}
		return nil
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list <job-slug>",
	Short: "List every run recorded for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "open store", err)
		}
		defer store.Close()

		runs, err := store.ListRunsByJob(args[0])
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded for this job")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%-36s %-20s %-10s %s\n", r.ID, r.StartedAt.UTC().Format("2006-01-02T15:04:05Z"), r.Status, r.JobSlug)
		}
		return nil
	},
}

func init() {
	historyShowCmd.Flags().String("job", "", "Job slug (use with --at instead of a run-id argument)")
	historyShowCmd.Flags().String("at", "", "Run's started-at timestamp, RFC3339 (use with --job instead of a run-id argument)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyListCmd)
}
