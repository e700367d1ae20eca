package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const AppName = "lighthouse-groupie"

// DefaultImage ships lighthouse together with a chrome build.
const DefaultImage = "femtopixel/google-lighthouse:latest"

type Config struct {
	AppDir      string     `yaml:"app_dir"`
	Count       int        `yaml:"count"`
	TimingsOnly bool       `yaml:"timings_only"`
	Lighthouse  Lighthouse `yaml:"lighthouse"`
	Docker      Docker     `yaml:"docker"`
	History     History    `yaml:"history"`
}

type Lighthouse struct {
	Binary         string            `yaml:"binary"`
	ChromeFlags    string            `yaml:"chrome_flags"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Headers        map[string]string `yaml:"headers"`
}

type Docker struct {
	Enabled bool   `yaml:"enabled"`
	Image   string `yaml:"image"`
}

type History struct {
	Disabled bool `yaml:"disabled"`
}

// Timeout is the per-run limit, zero when unlimited.
func (l Lighthouse) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// DefaultPath is the config file looked up when none is given.
// On Linux: ~/.config/lighthouse-groupie/config.yaml
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultAppDir is where run files and history live unless configured.
func DefaultAppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, "."+AppName), nil
}

// Default returns a config with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

func validate(cfg *Config) error {
	if cfg.AppDir == "" {
		dir, err := DefaultAppDir()
		if err != nil {
			return err
		}
		cfg.AppDir = dir
	} else if strings.HasPrefix(cfg.AppDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expanding app_dir: %w", err)
		}
		cfg.AppDir = filepath.Join(home, cfg.AppDir[2:])
	}
	if cfg.Count == 0 {
		cfg.Count = 30
	}
	if cfg.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if cfg.Lighthouse.Binary == "" {
		cfg.Lighthouse.Binary = "lighthouse"
	}
	if cfg.Lighthouse.ChromeFlags == "" {
		cfg.Lighthouse.ChromeFlags = "--headless"
	}
	if cfg.Lighthouse.TimeoutSeconds < 0 {
		return fmt.Errorf("lighthouse.timeout_seconds must not be negative")
	}
	if cfg.Docker.Image == "" {
		cfg.Docker.Image = DefaultImage
	}
	return nil
}
