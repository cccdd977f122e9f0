package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if time.Duration(cfg.Interval) != DefaultInterval || cfg.Manifest != DefaultManifest || !cfg.GitSync {
		t.Fatalf("Load() = %+v, want defaults", cfg)
	}
	if cfg.StateDB != "/var/state/driftd/history.db" {
		t.Fatalf("StateDB = %q", cfg.StateDB)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `interval: 90s
manifest: /srv/shop/docker-compose.yml
project: shop
git_sync: false
log_format: json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if time.Duration(cfg.Interval) != 90*time.Second {
		t.Errorf("Interval = %s", time.Duration(cfg.Interval))
	}
	if cfg.Project != "shop" || cfg.GitSync || cfg.LogFormat != "json" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.ComposeCommand != DefaultComposeCommand {
		t.Errorf("unset field lost its default: %q", cfg.ComposeCommand)
	}
	if cfg.CheckoutDir() != "/srv/shop" {
		t.Errorf("CheckoutDir() = %q", cfg.CheckoutDir())
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("interval: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want duration error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Interval = Duration(time.Minute)
	cfg.Checkout = "/srv/repo"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Fatalf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Interval = 0
	cfg.Manifest = " "
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"interval", "manifest"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %q, missing %q", err, want)
		}
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	if got := Path(); got != "/etc/xdg/driftd/config.yaml" {
		t.Fatalf("Path() = %q", got)
	}
}
