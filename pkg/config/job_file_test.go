package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validJobYAML = `
version: 1
slug: show-ip-arp
capture_kind: show_ip_arp
commands:
  primary:
    - "show ip arp"
filter:
  vendor_substring: cisco
execution:
  max_devices_in_flight: 8
  per_device_timeout: 45s
validation:
  enabled: true
  template_filter: cisco_ios_show_ip_arp
  min_score: 50
storage:
  output_subdir: arp-tables
  filename_template: "{device_name}_{timestamp}.txt"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadJobParsesFields(t *testing.T) {
	path := writeTemp(t, "job.yaml", validJobYAML)

	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob() error = %v", err)
	}
	if job.Slug != "show-ip-arp" {
		t.Errorf("Slug = %q", job.Slug)
	}
	if !job.Enabled {
		t.Error("Enabled = false, want true (default)")
	}
	if job.Execution.PerDeviceTimeout != 45*time.Second {
		t.Errorf("PerDeviceTimeout = %v, want 45s", job.Execution.PerDeviceTimeout)
	}
	if job.Execution.MaxDevicesInFlight != 8 {
		t.Errorf("MaxDevicesInFlight = %d, want 8", job.Execution.MaxDevicesInFlight)
	}
	if !job.Validation.Enabled || job.Validation.MinScore != 50 {
		t.Errorf("Validation = %+v", job.Validation)
	}
	if job.Filter.VendorSubstring != "cisco" {
		t.Errorf("Filter.VendorSubstring = %q", job.Filter.VendorSubstring)
	}
}

func TestLoadJobDefaultsMaxDevicesInFlight(t *testing.T) {
	const yamlBody = `
slug: minimal
capture_kind: show_version
commands:
  primary: ["show version"]
`
	path := writeTemp(t, "job.yaml", yamlBody)

	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob() error = %v", err)
	}
	if job.Execution.MaxDevicesInFlight != 4 {
		t.Errorf("MaxDevicesInFlight = %d, want default 4", job.Execution.MaxDevicesInFlight)
	}
	if job.Execution.PerDeviceTimeout != 30*time.Second {
		t.Errorf("PerDeviceTimeout = %v, want default 30s", job.Execution.PerDeviceTimeout)
	}
}

func TestLoadJobRejectsInvalidJob(t *testing.T) {
	const yamlBody = `
slug: ""
commands:
  primary: []
`
	path := writeTemp(t, "job.yaml", yamlBody)

	_, err := LoadJob(path)
	if err == nil {
		t.Fatal("expected ConfigError for empty slug and empty command list")
	}
}

func TestLoadJobRejectsMalformedDuration(t *testing.T) {
	const yamlBody = `
slug: bad-duration
capture_kind: show_version
commands:
  primary: ["show version"]
execution:
  per_device_timeout: "not-a-duration"
`
	path := writeTemp(t, "job.yaml", yamlBody)

	_, err := LoadJob(path)
	if err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadJobsDirLoadsAllAndSkipsNonYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(validJobYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	secondJob := `
slug: show-version
capture_kind: show_version
commands:
  primary: ["show version"]
`
	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte(secondJob), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	jobs, errs := LoadJobsDir(dir)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	if _, ok := jobs["show-ip-arp"]; !ok {
		t.Error("missing show-ip-arp job")
	}
	if _, ok := jobs["show-version"]; !ok {
		t.Error("missing show-version job")
	}
}

func TestLoadJobsDirCollectsPerFileErrorsWithoutStopping(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("slug: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(validJobYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	jobs, errs := LoadJobsDir(dir)
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
}
