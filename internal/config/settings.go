package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultBaseURL            = "http://127.0.0.1:8000"
	defaultPageSize           = 50
	defaultRowHeightPx        = 20
	defaultTickMS             = 16
	defaultFollowPxPerSecond  = 900
	defaultCatchupPxPerSecond = 900
	defaultStorageBackend     = "bbolt"
	defaultLogFormat          = "console"
	maxEventsPerTickDefault   = 64
	minTickInterval           = 5 * time.Millisecond
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Debug   DebugConfig   `toml:"debug"`
}

type ServerConfig struct {
	BaseURL string `toml:"base_url"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type UIConfig struct {
	RowHeightPx        int     `toml:"row_height_px"`
	PageSize           int     `toml:"page_size"`
	TickMS             int     `toml:"tick_ms"`
	MaxEventsPerTick   int     `toml:"max_events_per_tick"`
	FollowPxPerSecond  float64 `toml:"follow_px_per_second"`
	CatchupPxPerSecond float64 `toml:"catchup_px_per_second"`
}

type DebugConfig struct {
	StreamDebug bool `toml:"stream_debug"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: defaultBaseURL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: defaultLogFormat,
		},
		Storage: StorageConfig{
			Backend: defaultStorageBackend,
		},
		UI: UIConfig{
			RowHeightPx:        defaultRowHeightPx,
			PageSize:           defaultPageSize,
			TickMS:             defaultTickMS,
			MaxEventsPerTick:   maxEventsPerTickDefault,
			FollowPxPerSecond:  defaultFollowPxPerSecond,
			CatchupPxPerSecond: defaultCatchupPxPerSecond,
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) BaseURL() string {
	raw := strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if raw == "" {
		return defaultBaseURL
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	return raw
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) LogFormat() string {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		return defaultLogFormat
	}
	return format
}

func (c Config) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		return defaultStorageBackend
	}
	return backend
}

// StoragePath resolves the configured storage location, falling back to the
// backend's default under the data directory.
func (c Config) StoragePath() (string, error) {
	if path := strings.TrimSpace(c.Storage.Path); path != "" {
		return resolveConfigPath(path)
	}
	if c.StorageBackend() == "file" {
		return SnapshotDir()
	}
	return StorePath()
}

func (c Config) StreamDebugEnabled() bool {
	return c.Debug.StreamDebug
}

func (c UIConfig) PageSizeOrDefault() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}
	return c.PageSize
}

func (c UIConfig) RowHeight() int {
	if c.RowHeightPx <= 0 {
		return defaultRowHeightPx
	}
	return c.RowHeightPx
}

func (c UIConfig) TickInterval() time.Duration {
	interval := time.Duration(c.TickMS) * time.Millisecond
	if interval < minTickInterval {
		return defaultTickMS * time.Millisecond
	}
	return interval
}

func (c UIConfig) EventsPerTick() int {
	if c.MaxEventsPerTick <= 0 {
		return maxEventsPerTickDefault
	}
	return c.MaxEventsPerTick
}

func (c UIConfig) FollowRate() float64 {
	if c.FollowPxPerSecond <= 0 {
		return defaultFollowPxPerSecond
	}
	return c.FollowPxPerSecond
}

func (c UIConfig) CatchupRate() float64 {
	if c.CatchupPxPerSecond <= 0 {
		return defaultCatchupPxPerSecond
	}
	return c.CatchupPxPerSecond
}

// Marshal renders the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
