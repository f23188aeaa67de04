package main

import (
	"fmt"
	"os"
)

const usageText = `assistant is a terminal client for the journal assistant.

Usage:
  assistant <command> [flags]

Commands:
  ui         run the terminal chat (default)
  login      sign in and store the session cookie
  logout     sign out and clear the local cache
  journals   list journals
  search     search journals by reference
  messages   print the messages of a journal
  send       send a message and stream the reply
  config     print configuration (effective or defaults)
  version    print the build version
  help       show help

Flags:
  -h, --help   show help

Examples:
  assistant login --email me@example.com
  assistant journals --json
  assistant messages 2026/02/19 --limit 20
  assistant send "what did I do yesterday?"
  assistant config --default --format toml
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"ui"}
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr, os.Stdin)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
