package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/credential"
	"github.com/ravensys/netcollect/pkg/domain"
	"github.com/ravensys/netcollect/pkg/resolver"
	"github.com/ravensys/netcollect/pkg/sshexec"
	"github.com/ravensys/netcollect/pkg/storage"
)

var credentialCmd = &cobra.Command{
	Use: "credential",
	Short: "Credential resolution and discovery",
}

var credentialDiscoverCmd = &cobra.Command{
	Use: "discover",
	Short: "Probe every candidate credential against a device set and record what works",
	Long: `discover connects (but never runs a data command) against every device
matching the filter with every unlocked credential, in prior-pin-first
order, and writes the result to each device's credential test fields.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		siteID, _ := cmd.Flags().GetString("site")
		skipRecent, _ := cmd.Flags().GetDuration("skip-recent")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		devices, err := resolver.New(store).Resolve(domain.DeviceFilter{SiteID: siteID})
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			return collectorerr.New(collectorerr.InventoryEmpty, "no devices matched the discovery filter")
		}

		prober := sshexec.NewDiscoveryProber(nil, 10*time.Second)
		results := credential.Run(context.Background(), prober, devices, cache.All(), credential.Options{
			SkipRecentlyTestedWithin: skipRecent,
			Concurrency: concurrency,
		})

		now := time.Now()
		success, failed := 0, 0
		for i, res := range results {
			if res.Skipped {
				continue
			}
			device := devices[i]
			testResult := domain.CredentialTestFailed
			workingID := ""
			if res.Success {
				testResult = domain.CredentialTestSuccess
				workingID = res.WorkingCredentialID
				success++
			} else {
				failed++
			}
			if err := store.UpdateDeviceCredentialTest(device.ID, testResult, now, workingID); err != nil {
				fmt.Printf("%s: failed to record test result: %v\n", device.Name, err)
			}
			fmt.Printf("%-24s %s\n", device.Name, testResult)
		}

		fmt.Printf("\n%d succeeded, %d failed, %d skipped\n", success, failed, len(results)-success-failed)
		if failed > 0 {
			return collectorerr.New(collectorerr.AuthFailed, fmt.Sprintf("%d devices have no working credential", failed))
		}
		return nil
	},
}

func init() {
	credentialDiscoverCmd.Flags().String("site", "", "Limit discovery to a site id")
	credentialDiscoverCmd.Flags().Duration("skip-recent", 0, "Skip devices tested within this duration")
	credentialDiscoverCmd.Flags().Int("concurrency", 8, "Maximum concurrent probes")

	credentialCmd.AddCommand(credentialDiscoverCmd)
}
