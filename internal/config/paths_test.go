package config

import (
	"path/filepath"
	"testing"
)

func TestPathsLiveUnderDataDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	dataDir := filepath.Join(home, ".assistant")
	cases := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"config", ConfigPath, filepath.Join(dataDir, "config.toml")},
		{"store", StorePath, filepath.Join(dataDir, "session.db")},
		{"snapshot dir", SnapshotDir, filepath.Join(dataDir, "session")},
		{"cookies", CookiePath, filepath.Join(dataDir, "cookies.json")},
		{"ui log", UILogPath, filepath.Join(dataDir, "ui.log")},
	}
	for _, tc := range cases {
		got, err := tc.fn()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got=%q want=%q", tc.name, got, tc.want)
		}
	}
}
