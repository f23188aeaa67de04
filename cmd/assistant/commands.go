package main

import (
	"io"
	"os"

	"assistant/internal/config"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout  io.Writer
	stderr  io.Writer
	stdin   io.Reader
	deps    commandDeps
	runUI   uiRunner
	version string
}

// commandDeps builds the per-invocation runtime. Every command loads the
// config itself so flags parsed before it can fail fast.
type commandDeps struct {
	loadConfig func() (config.Config, error)
	newClient  clientFactory
	openStore  storeFactory
}

func defaultCommandWiring(stdout, stderr io.Writer, stdin io.Reader) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	return commandWiring{
		stdout: stdout,
		stderr: stderr,
		stdin:  stdin,
		deps: commandDeps{
			loadConfig: config.Load,
			newClient:  newBackendClient,
			openStore:  openSnapshotStore,
		},
		runUI:   runTerminalUI,
		version: buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"ui":       NewUICommand(wiring.stderr, wiring.deps, wiring.runUI),
		"login":    NewLoginCommand(wiring.stdout, wiring.stderr, wiring.stdin, wiring.deps),
		"logout":   NewLogoutCommand(wiring.stdout, wiring.stderr, wiring.deps),
		"journals": NewJournalsCommand(wiring.stdout, wiring.stderr, wiring.deps),
		"search":   NewSearchCommand(wiring.stdout, wiring.stderr, wiring.deps),
		"messages": NewMessagesCommand(wiring.stdout, wiring.stderr, wiring.deps),
		"send":     NewSendCommand(wiring.stdout, wiring.stderr, wiring.deps),
		"config":   NewConfigCommand(wiring.stdout, wiring.stderr, wiring.deps.loadConfig),
		"version":  NewVersionCommand(wiring.stdout, wiring.version),
	}
}
