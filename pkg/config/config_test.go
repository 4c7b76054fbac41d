package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultBuildsConventionalSubpaths(t *testing.T) {
	cfg := Default("/var/lib/netcollect")
	if cfg.CaptureRoot != filepath.Join("/var/lib/netcollect", "captures") {
		t.Errorf("CaptureRoot = %q", cfg.CaptureRoot)
	}
	if cfg.VaultPasswordEnvVar != DefaultVaultPasswordEnvVar {
		t.Errorf("VaultPasswordEnvVar = %q", cfg.VaultPasswordEnvVar)
	}
	if cfg.MaxWorkersCeiling <= 0 {
		t.Error("MaxWorkersCeiling must be positive")
	}
}

func TestEnsureDirsCreatesEverySubpath(t *testing.T) {
	root := t.TempDir()
	cfg := Default(filepath.Join(root, "data"))

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.CaptureRoot, cfg.JobsDir, cfg.BatchesDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Stat(%s) error = %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestVaultPasswordReadsConfiguredEnvVar(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.VaultPasswordEnvVar = "NETCOLLECT_TEST_VAULT_PW"

	t.Setenv(cfg.VaultPasswordEnvVar, "hunter2")

	pw, ok := cfg.VaultPassword()
	if !ok || pw != "hunter2" {
		t.Errorf("VaultPassword() = %q, %v, want hunter2, true", pw, ok)
	}
}

func TestVaultPasswordUnsetIsNotOK(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.VaultPasswordEnvVar = "NETCOLLECT_TEST_VAULT_PW_UNSET"

	_, ok := cfg.VaultPassword()
	if ok {
		t.Error("VaultPassword() ok = true for an unset variable")
	}
}
