package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.UI.PageSizeOrDefault() != 50 {
		t.Fatalf("unexpected page size: %d", cfg.UI.PageSizeOrDefault())
	}
	if cfg.UI.FollowRate() != 900 || cfg.UI.CatchupRate() != 900 {
		t.Fatalf("unexpected scroll rates: %v %v", cfg.UI.FollowRate(), cfg.UI.CatchupRate())
	}
	if cfg.StorageBackend() != "bbolt" {
		t.Fatalf("unexpected backend: %q", cfg.StorageBackend())
	}
	path, err := cfg.StoragePath()
	if err != nil {
		t.Fatalf("StoragePath: %v", err)
	}
	if want := filepath.Join(home, ".assistant", "session.db"); path != want {
		t.Fatalf("unexpected storage path: got=%q want=%q", path, want)
	}
}

func TestLoadFromTOML(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	dataDir := filepath.Join(home, ".assistant")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := []byte(strings.Join([]string{
		"[server]",
		"base_url = \"journal.example.com/\"",
		"[storage]",
		"backend = \"file\"",
		"path = \"snapshots\"",
		"[ui]",
		"page_size = 20",
		"tick_ms = 1",
		"[logging]",
		"level = \"debug\"",
		"format = \"JSON\"",
	}, "\n"))
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "http://journal.example.com" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.UI.PageSizeOrDefault() != 20 {
		t.Fatalf("unexpected page size: %d", cfg.UI.PageSizeOrDefault())
	}
	if cfg.UI.TickInterval() != 16*time.Millisecond {
		t.Fatalf("expected too-small tick to fall back, got %v", cfg.UI.TickInterval())
	}
	if cfg.LogLevel() != "debug" || cfg.LogFormat() != "json" {
		t.Fatalf("unexpected logging config: %q %q", cfg.LogLevel(), cfg.LogFormat())
	}
	path, err := cfg.StoragePath()
	if err != nil {
		t.Fatalf("StoragePath: %v", err)
	}
	if want := filepath.Join(dataDir, "snapshots"); path != want {
		t.Fatalf("unexpected storage path: got=%q want=%q", path, want)
	}
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nbase_url="), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.UI.RowHeight() != 20 {
		t.Fatalf("unexpected row height: %d", cfg.UI.RowHeight())
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "base_url") {
		t.Fatalf("expected base_url in %q", string(data))
	}
}
