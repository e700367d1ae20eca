package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/lighthouse-groupie/internal/config"
)

func TestLoadMinimal(t *testing.T) {
	cfg, err := config.Load("../../testdata/minimal.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AppDir != "/tmp/groupie-test" {
		t.Errorf("expected app_dir /tmp/groupie-test, got %q", cfg.AppDir)
	}
	if cfg.Count != 30 {
		t.Errorf("expected default count 30, got %d", cfg.Count)
	}
	if cfg.Lighthouse.Binary != "lighthouse" {
		t.Errorf("expected default binary, got %q", cfg.Lighthouse.Binary)
	}
	if cfg.Lighthouse.ChromeFlags != "--headless" {
		t.Errorf("expected headless chrome flags, got %q", cfg.Lighthouse.ChromeFlags)
	}
	if cfg.Lighthouse.Timeout() != 0 {
		t.Errorf("expected no timeout, got %s", cfg.Lighthouse.Timeout())
	}
	if cfg.Docker.Enabled {
		t.Error("expected docker disabled by default")
	}
	if cfg.Docker.Image != config.DefaultImage {
		t.Errorf("expected default image, got %q", cfg.Docker.Image)
	}
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load("../../testdata/full.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "perf", "groupie"); cfg.AppDir != want {
		t.Errorf("app_dir: got %q, want %q", cfg.AppDir, want)
	}
	if cfg.Count != 5 || !cfg.TimingsOnly {
		t.Errorf("unexpected count/timings_only: %d/%v", cfg.Count, cfg.TimingsOnly)
	}
	if cfg.Lighthouse.Timeout() != 2*time.Minute {
		t.Errorf("timeout: got %s", cfg.Lighthouse.Timeout())
	}
	if cfg.Lighthouse.Headers["Cookie"] != "consent=yes" {
		t.Errorf("headers: got %v", cfg.Lighthouse.Headers)
	}
	if !cfg.Docker.Enabled || cfg.Docker.Image != "ghcr.io/example/lighthouse:11" {
		t.Errorf("docker: got %+v", cfg.Docker)
	}
	if !cfg.History.Disabled {
		t.Error("expected history disabled")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load("nonexistent.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefaultMissing(t *testing.T) {
	cfg, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Count != 30 {
		t.Errorf("expected default count, got %d", cfg.Count)
	}
	if !strings.HasSuffix(cfg.AppDir, ".lighthouse-groupie") {
		t.Errorf("expected default app dir, got %q", cfg.AppDir)
	}
}

func TestLoadInvalid(t *testing.T) {
	for _, path := range []string{"../../testdata/invalid.yaml", "../../testdata/negative-count.yaml"} {
		if _, err := config.Load(path); err == nil {
			t.Errorf("expected error for %s", path)
		}
	}
	if _, err := config.LoadOrDefault("../../testdata/invalid.yaml"); err == nil {
		t.Error("LoadOrDefault must not hide parse errors")
	}
}

func TestDefaultPath(t *testing.T) {
	if !strings.HasSuffix(config.DefaultPath(), filepath.Join("lighthouse-groupie", "config.yaml")) {
		t.Errorf("unexpected default path %q", config.DefaultPath())
	}
}
