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

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Run declarative collection jobs against the device inventory",
}

var jobRunCmd = &cobra.Command{
	Use:   "run <job-slug>",
	Short: "Resolve a job's device set, run the SSH pool, validate, and persist captures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		path := filepath.Join(cfg.JobsDir, slug+".yaml")
		job, err := config.LoadJob(path)
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

		overrideCredentialID, _ := cmd.Flags().GetString("credential")

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		stopMetrics := startMetricsServer(metricsAddr)
		defer stopMetrics()

		sink, drain := newConsoleSink(2 * job.Execution.MaxDevicesInFlight)

		jr := runner.New(store, cache, store, store, cfg.CaptureRoot, nil, sink)
		run, outcomes, err := jr.Run(context.Background(), job, overrideCredentialID)
		drain()
		if run != nil {
			fmt.Printf("run %s: %s (%d devices)\n", run.ID, run.Status, run.TotalDevices)
			fmt.Printf("  success=%d failed=%d skipped=%d\n", run.Success, run.Failed, run.Skipped)
		}
		for _, outcome := range outcomes {
			if !outcome.Success && !outcome.Skipped {
				fmt.Printf("  %s: %s\n", outcome.DeviceName, outcome.ErrorMessage)
			}
		}
		if err != nil {
			return err
		}
		if run != nil && run.Failed > 0 {
			return collectorerr.New(collectorerr.CommandError, fmt.Sprintf("%d devices failed", run.Failed))
		}
		return nil
	},
}

func init() {
	jobRunCmd.Flags().String("credential", "", "Override credential id to use for every device in this run")
	jobRunCmd.Flags().String("password", "", "Vault password (prefer the env var fallback or the prompt)")
	jobRunCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics at this address for the duration of the run (e.g. :9090)")

	jobCmd.AddCommand(jobRunCmd)
}
