package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.OutputDir != "tcg-data" {
		t.Errorf("unexpected output dir: %s", cfg.OutputDir)
	}
	if cfg.Source != "mtg" || cfg.Amount != "all" {
		t.Errorf("unexpected source defaults: %s %s", cfg.Source, cfg.Amount)
	}
	if cfg.Width != 224 || cfg.Height != 320 {
		t.Errorf("unexpected image dims: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Concurrency < 1 {
		t.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.Split.TestFraction != 0.1 || cfg.Split.ValidationFraction != 0.1 {
		t.Errorf("unexpected split defaults: %+v", cfg.Split)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputDir != "tcg-data" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output_dir: /srv/cards
source: ga
amount: "500"
concurrency: 12
width: 256
height: 356
upload:
  host: backup.example.com
  user: datasets
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputDir != "/srv/cards" || cfg.Source != "ga" || cfg.Amount != "500" {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.Concurrency != 12 || cfg.Width != 256 || cfg.Height != 356 {
		t.Errorf("unexpected numeric values: %+v", cfg)
	}
	if cfg.Upload.Host != "backup.example.com" || cfg.Upload.User != "datasets" {
		t.Errorf("unexpected upload values: %+v", cfg.Upload)
	}
	// Unset keys keep their defaults.
	if cfg.Upload.Port != 22 {
		t.Errorf("expected default port 22, got %d", cfg.Upload.Port)
	}
	if cfg.Split.TestFraction != 0.1 {
		t.Errorf("expected default test fraction, got %v", cfg.Split.TestFraction)
	}
}

func TestLoadXDGResolution(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "tcgforge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output_dir: from-xdg\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OutputDir != "from-xdg" {
		t.Errorf("expected config from XDG path, got %s", cfg.OutputDir)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output_dir: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
