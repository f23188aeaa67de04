package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".assistant"

// DataDir returns the base data directory for the assistant client.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	return dataPath("config.toml")
}

// StorePath returns the path to the bbolt session database.
func StorePath() (string, error) {
	return dataPath("session.db")
}

// SnapshotDir returns the directory used by the file storage backend.
func SnapshotDir() (string, error) {
	return dataPath("session")
}

// CookiePath returns the path to the persisted auth cookies.
func CookiePath() (string, error) {
	return dataPath("cookies.json")
}

// UILogPath returns the path to the UI log file.
func UILogPath() (string, error) {
	return dataPath("ui.log")
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
