package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/config"
	"github.com/ravensys/netcollect/pkg/credential"
	"github.com/ravensys/netcollect/pkg/runner"
	"github.com/ravensys/netcollect/pkg/storage"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a sequence of jobs as a batch",
}

var batchRunCmd = &cobra.Command{
	Use:   "run <batch-name>",
	Short: "Load a batch descriptor and every job it references, then run them in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, loadErrs := config.LoadJobsDir(cfg.JobsDir)
		for _, e := range loadErrs {
			fmt.Printf("warning: %v\n", e)
		}

		name := args[0]
		path := filepath.Join(cfg.BatchesDir, name+".yaml")
		b, err := config.LoadBatch(path, func(slug string) bool {
			_, ok := jobs[slug]
			return ok
		})
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "open store", err)
		}
		defer store.Close()

		session, err := unlockSession(cmd, store)
		if err != nil {
			return err
		}
		defer session.Lock()

		cache, err := credential.Load(store, session)
		if err != nil {
			return collectorerr.Wrap(collectorerr.ConfigError, "load credential cache", err)
		}

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		stopMetrics := startMetricsServer(metricsAddr)
		defer stopMetrics()

		sink, drain := newConsoleSink(2 * cfg.MaxWorkersCeiling)

		jr := runner.New(store, cache, store, store, cfg.CaptureRoot, nil, sink)
		br := runner.NewBatchRunner(jr)

		result, err := br.Run(context.Background(), b, jobs)
		drain()
		if result != nil {
			fmt.Printf("batch %s: %d attempted, %d succeeded, %d partial, %d failed, %d cancelled\n",
				b.Name, result.JobsAttempted, result.JobsSucceeded, result.JobsPartial, result.JobsFailed, result.JobsCancelled)
			fmt.Printf("  devices: %d total, %d success, %d failed, %d skipped\n",
				result.TotalDevices, result.TotalSuccess, result.TotalFailed, result.TotalSkipped)
			for _, jo := range result.Jobs {
				line := fmt.Sprintf("  %-20s %s", jo.Slug, jo.Status)
				if jo.Cancelled {
					line += " (cancelled)"
				}
				if jo.Error != "" {
					line += ": " + jo.Error
				}
				fmt.Println(line)
			}
		}
		if err != nil {
			return err
		}
		if result != nil && result.JobsFailed > 0 {
			return collectorerr.New(collectorerr.CommandError, fmt.Sprintf("%d jobs failed", result.JobsFailed))
		}
		return nil
	},
}

func init() {
	batchRunCmd.Flags().String("password", "", "Vault password (prefer the env var fallback or the prompt)")
	batchRunCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics at this address for the duration of the run (e.g. :9090)")

	batchCmd.AddCommand(batchRunCmd)
}
