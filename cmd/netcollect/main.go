package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ravensys/netcollect/pkg/collectorerr"
	"github.com/ravensys/netcollect/pkg/config"
	"github.com/ravensys/netcollect/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit = "unknown"
	BuildTime = "unknown"
)

var cfg config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a returned error to this CLI's exit code convention:
// 0 success (never reached here, Execute only returns on error), 1 for a
// device/job-level failure, 2 for a configuration error.
func exitCodeFor(err error) int {
	if kind, ok := collectorerr.KindOf(err); ok {
		switch kind {
		case collectorerr.ConfigError, collectorerr.InventoryEmpty, collectorerr.SecretStoreLocked:
			return 2
		}
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use: "netcollect",
	Short: "netcollect collects structured command output from network devices over SSH",
	Long: `netcollect runs declarative jobs against a device inventory over SSH,
validates the output against structured-text templates, and persists
capture files and run history to an embedded store.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"netcollect version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Data directory (database, captures, job/batch descriptors)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(credentialCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netcollect"
	}
	return home + "/.netcollect"
}

func initConfig() {
	dataDir, _ := rootCmd.PersistentFlags().GetString("data-dir")
	cfg = config.Default(dataDir)
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating data directories: %v\n", err)
		os.Exit(2)
	}
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level: log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
