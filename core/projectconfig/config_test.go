package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFullConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage_root: "  /srv/storage  "
phantom_policy: count-unique
extra_completed_markers:
  - "Condensed history"
  - "   "
report:
  out: " reports/reboots.json "
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	configuration, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if configuration.StorageRoot != "/srv/storage" {
		t.Fatalf("storage root not trimmed: %q", configuration.StorageRoot)
	}
	if configuration.PhantomPolicy != "count-unique" {
		t.Fatalf("phantom policy: %q", configuration.PhantomPolicy)
	}
	if len(configuration.ExtraCompletedMarkers) != 1 || configuration.ExtraCompletedMarkers[0] != "Condensed history" {
		t.Fatalf("markers: %v", configuration.ExtraCompletedMarkers)
	}
	if configuration.Report.Out != "reports/reboots.json" {
		t.Fatalf("report out: %q", configuration.Report.Out)
	}
}

func TestLoadMissingAllowed(t *testing.T) {
	configuration, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	if err != nil {
		t.Fatalf("missing config with allowMissing should succeed: %v", err)
	}
	if configuration.StorageRoot != "" || configuration.PhantomPolicy != "" {
		t.Fatalf("expected zero config, got %+v", configuration)
	}
}

func TestLoadMissingRejected(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path, false); err != nil {
		t.Fatalf("blank config should load as zero value: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage_root: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path, false); err == nil {
		t.Fatalf("expected parse error")
	}
}
