package main

import (
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"assistant/internal/config"
	"assistant/internal/logging"
	"assistant/internal/sanitize"
	"assistant/internal/types"
)

const (
	version = "dev"

	referenceColumnWidth = 12
)

// commandLogger keeps one-shot command output clean: only warnings and
// errors reach stderr unless debug logging is configured.
func commandLogger(cfg config.Config, stderr io.Writer) logging.Logger {
	level := logging.ParseLevel(cfg.LogLevel())
	if level < logging.Warn && level != logging.Debug {
		level = logging.Warn
	}
	return logging.NewWithFormat(stderr, level, cfg.LogFormat())
}

// connect loads the config and builds a backend client for one command.
func (d commandDeps) connect(stderr io.Writer) (config.Config, commandClient, logging.Logger, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := commandLogger(cfg, stderr)
	client, err := d.newClient(cfg, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, client, logger, nil
}

func printJournals(output io.Writer, entries []types.JournalEntry) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "REFERENCE\tMESSAGES\tLAST MESSAGE")
	for _, entry := range entries {
		last := "-"
		if entry.LastMessageAt != nil && strings.TrimSpace(*entry.LastMessageAt) != "" {
			last = *entry.LastMessageAt
		}
		fmt.Fprintf(writer, "%s\t%d\t%s\n", sanitize.Line(entry.Reference, referenceColumnWidth), entry.MessageCount, sanitize.Line(last, 0))
	}
	_ = writer.Flush()
}

func writeJSON(out io.Writer, payload any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// readPassword reads without echo from a terminal and reads one line from
// anything else, so passwords can be piped in.
func readPassword(stdin io.Reader, stderr io.Writer) (string, error) {
	if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(stderr, "Password: ")
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func closeQuietly(closer io.Closer, logger logging.Logger) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil && logger != nil {
		logger.Warn("close_failed", logging.F("error", err))
	}
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}
