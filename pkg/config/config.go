package config

import (
	"os"
	"path/filepath"
)

// DefaultVaultPasswordEnvVar is the well-known environment variable the
// vault falls back to when no interactive unlock is available.
const DefaultVaultPasswordEnvVar = "NETCOLLECT_VAULT_PASSWORD"

const defaultMaxWorkersCeiling = 64

// Config is the process-wide configuration for the collection core,
// assembled from CLI flags. It has no knowledge of any one job or
// batch; those are loaded separately from JobsDir/BatchesDir.
type Config struct {
	DataDir string // holds collection.db (pkg/storage)
	CaptureRoot string // root of every job's capture subdirectory
	JobsDir string // directory of job descriptor YAML files
	BatchesDir string // directory of batch descriptor YAML files
	VaultPasswordEnvVar string
	MaxWorkersCeiling int
}

// Default returns a Config rooted under dir (the CLI's --data-dir, which
// defaults to ~/.netcollect), with conventional subpaths
// and the well-known vault password fallback variable.
func Default(dir string) Config {
	return Config{
		DataDir: dir,
		CaptureRoot: filepath.Join(dir, "captures"),
		JobsDir: filepath.Join(dir, "jobs"),
		BatchesDir: filepath.Join(dir, "batches"),
		VaultPasswordEnvVar: DefaultVaultPasswordEnvVar,
		MaxWorkersCeiling: defaultMaxWorkersCeiling,
	}
}

// EnsureDirs creates every directory the config references, so a fresh
// data directory is usable without a separate init step.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.CaptureRoot, c.JobsDir, c.BatchesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// VaultPassword resolves the vault password from the configured
// environment variable fallback. ok is false when the variable is unset,
// in which case the caller must prompt interactively.
func (c Config) VaultPassword() (password string, ok bool) {
	v := os.Getenv(c.VaultPasswordEnvVar)
	return v, v != ""
}
