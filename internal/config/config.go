package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the YAML-backed tool configuration. CLI flags override whatever is
// set here; zero values fall back to defaults at load time.
type Config struct {
	OutputDir          string  `yaml:"output_dir"`
	Source             string  `yaml:"source"`
	Amount             string  `yaml:"amount"`
	Concurrency        int     `yaml:"concurrency"`
	Width              int     `yaml:"width"`
	Height             int     `yaml:"height"`
	HTTPTimeoutSeconds int     `yaml:"http_timeout_seconds"`
	Split              struct {
		TestFraction       float64 `yaml:"test_fraction"`
		ValidationFraction float64 `yaml:"validation_fraction"`
	} `yaml:"split"`
	Augment struct {
		Amount int `yaml:"amount"`
	} `yaml:"augment"`
	Upload struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		User       string `yaml:"user"`
		KeyPath    string `yaml:"key_path"`
		KnownHosts string `yaml:"known_hosts"`
		RemoteDir  string `yaml:"remote_dir"`
	} `yaml:"upload"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.OutputDir = "tcg-data"
	cfg.Source = "mtg"
	cfg.Amount = "all"
	cfg.Concurrency = runtime.NumCPU()
	cfg.Width = 224
	cfg.Height = 320
	cfg.HTTPTimeoutSeconds = 60
	cfg.Split.TestFraction = 0.1
	cfg.Split.ValidationFraction = 0.1
	cfg.Augment.Amount = 5
	cfg.Upload.Port = 22
	return cfg
}

// Load reads YAML configuration from path. If path is empty, it resolves
// $XDG_CONFIG_HOME/tcgforge/config.yaml or ~/.config/tcgforge/config.yaml; a
// missing default file yields Default() rather than an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if path == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
		path = filepath.Join(base, "tcgforge", "config.yaml")
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return cfg, nil
}
