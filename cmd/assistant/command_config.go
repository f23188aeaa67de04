package main

import (
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"assistant/internal/config"
)

type ConfigCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	ConfigPath string                `json:"config_path,omitempty" toml:"config_path,omitempty"`
	Server     effectiveServerConfig `json:"server" toml:"server"`
	Logging    effectiveLogging      `json:"logging" toml:"logging"`
	Storage    effectiveStorage      `json:"storage" toml:"storage"`
	UI         effectiveUIConfig     `json:"ui" toml:"ui"`
	Debug      effectiveDebugConfig  `json:"debug" toml:"debug"`
}

type effectiveServerConfig struct {
	BaseURL string `json:"base_url" toml:"base_url"`
}

type effectiveLogging struct {
	Level  string `json:"level" toml:"level"`
	Format string `json:"format" toml:"format"`
}

type effectiveStorage struct {
	Backend string `json:"backend" toml:"backend"`
	Path    string `json:"path" toml:"path"`
}

type effectiveUIConfig struct {
	RowHeightPx        int     `json:"row_height_px" toml:"row_height_px"`
	PageSize           int     `json:"page_size" toml:"page_size"`
	TickMS             int64   `json:"tick_ms" toml:"tick_ms"`
	MaxEventsPerTick   int     `json:"max_events_per_tick" toml:"max_events_per_tick"`
	FollowPxPerSecond  float64 `json:"follow_px_per_second" toml:"follow_px_per_second"`
	CatchupPxPerSecond float64 `json:"catchup_px_per_second" toml:"catchup_px_per_second"`
}

type effectiveDebugConfig struct {
	StreamDebug bool `json:"stream_debug" toml:"stream_debug"`
}

func NewConfigCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error)) *ConfigCommand {
	if loadConfig == nil {
		loadConfig = config.Load
	}
	return &ConfigCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	payload, err := c.buildOutput(*defaults)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func (c *ConfigCommand) buildOutput(defaults bool) (configOutput, error) {
	var cfg config.Config
	if defaults {
		cfg = config.DefaultConfig()
	} else {
		loaded, err := c.loadConfig()
		if err != nil {
			return configOutput{}, err
		}
		cfg = loaded
	}
	out := configOutput{
		Server: effectiveServerConfig{BaseURL: cfg.BaseURL()},
		Logging: effectiveLogging{
			Level:  cfg.LogLevel(),
			Format: cfg.LogFormat(),
		},
		Storage: effectiveStorage{Backend: cfg.StorageBackend()},
		UI: effectiveUIConfig{
			RowHeightPx:        cfg.UI.RowHeight(),
			PageSize:           cfg.UI.PageSizeOrDefault(),
			TickMS:             cfg.UI.TickInterval().Milliseconds(),
			MaxEventsPerTick:   cfg.UI.EventsPerTick(),
			FollowPxPerSecond:  cfg.UI.FollowRate(),
			CatchupPxPerSecond: cfg.UI.CatchupRate(),
		},
		Debug: effectiveDebugConfig{StreamDebug: cfg.StreamDebugEnabled()},
	}
	if !defaults {
		if path, err := config.ConfigPath(); err == nil {
			out.ConfigPath = path
		}
	}
	if path, err := cfg.StoragePath(); err == nil {
		out.Storage.Path = path
	}
	return out, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		return writeJSON(out, payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}

type VersionCommand struct {
	stdout  io.Writer
	version string
}

func NewVersionCommand(stdout io.Writer, version string) *VersionCommand {
	return &VersionCommand{stdout: stdout, version: version}
}

func (c *VersionCommand) Run(args []string) error {
	_, err := io.WriteString(c.stdout, c.version+"\n")
	return err
}
