package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables recognized on top of the config file.
const (
	envDotBinary = "DOTFORGE_DOT_BINARY"
	envVendorDir = "DOTFORGE_VENDOR_DIR"
	envEngine    = "DOTFORGE_ENGINE"
	envFormat    = "DOTFORGE_FORMAT"
)

// config holds the file-backed CLI defaults. Flags override environment
// variables, which override the config file, which overrides built-ins.
type config struct {
	Render renderConfig `toml:"render"`
}

type renderConfig struct {
	Format    string `toml:"format"`     // default output format (svg)
	Engine    string `toml:"engine"`     // layout engine for the external binary
	DotBinary string `toml:"dot_binary"` // explicit renderer executable
	VendorDir string `toml:"vendor_dir"` // vendored renderer directory
}

// defaultConfig returns the built-in defaults.
func defaultConfig() config {
	return config{Render: renderConfig{Format: "svg"}}
}

// configPath returns the location of the user config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "dotforge", "config.toml"), nil
}

// loadConfig assembles the effective configuration: built-ins, then the
// TOML config file (if present), then environment variables. A .env file
// in the working directory is loaded first so local overrides apply; a
// missing .env is not an error.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	path, err := configPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, decodeErr := toml.DecodeFile(path, &cfg); decodeErr != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays recognized environment variables onto cfg.
func applyEnv(cfg *config) {
	if v := os.Getenv(envDotBinary); v != "" {
		cfg.Render.DotBinary = v
	}
	if v := os.Getenv(envVendorDir); v != "" {
		cfg.Render.VendorDir = v
	}
	if v := os.Getenv(envEngine); v != "" {
		cfg.Render.Engine = v
	}
	if v := os.Getenv(envFormat); v != "" {
		cfg.Render.Format = v
	}
}
