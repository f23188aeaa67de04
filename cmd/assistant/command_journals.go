package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"assistant/internal/reconcile"
	"assistant/internal/sanitize"
	"assistant/internal/types"
)

const defaultSearchLimit = 20

type JournalsCommand struct {
	stdout io.Writer
	stderr io.Writer
	deps   commandDeps
}

func NewJournalsCommand(stdout, stderr io.Writer, deps commandDeps) *JournalsCommand {
	return &JournalsCommand{
		stdout: stdout,
		stderr: stderr,
		deps:   deps,
	}
}

func (c *JournalsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("journals", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	asJSON := fs.Bool("json", false, "print raw JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, client, _, err := c.deps.connect(c.stderr)
	if err != nil {
		return err
	}
	entries, err := client.ListJournals(context.Background())
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(c.stdout, entries)
	}
	printJournals(c.stdout, entries)
	return nil
}

type SearchCommand struct {
	stdout io.Writer
	stderr io.Writer
	deps   commandDeps
}

func NewSearchCommand(stdout, stderr io.Writer, deps commandDeps) *SearchCommand {
	return &SearchCommand{
		stdout: stdout,
		stderr: stderr,
		deps:   deps,
	}
}

func (c *SearchCommand) Run(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	limit := fs.Int("limit", defaultSearchLimit, "maximum number of results")
	asJSON := fs.Bool("json", false, "print raw JSON")
	if err := fs.Parse(flagsFirst(args)); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return errors.New("search query is required")
	}

	_, client, _, err := c.deps.connect(c.stderr)
	if err != nil {
		return err
	}
	entries, err := client.SearchJournals(context.Background(), query, *limit)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(c.stdout, entries)
	}
	printJournals(c.stdout, entries)
	return nil
}

// MessagesCommand prints one page of a journal, oldest first.
type MessagesCommand struct {
	stdout io.Writer
	stderr io.Writer
	deps   commandDeps
}

func NewMessagesCommand(stdout, stderr io.Writer, deps commandDeps) *MessagesCommand {
	return &MessagesCommand{
		stdout: stdout,
		stderr: stderr,
		deps:   deps,
	}
}

func (c *MessagesCommand) Run(args []string) error {
	fs := flag.NewFlagSet("messages", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	limit := fs.Int("limit", 0, "page size (defaults to the configured ui.page_size)")
	cursor := fs.Int64("cursor", 0, "only return messages older than this sequence")
	asJSON := fs.Bool("json", false, "print normalized messages as JSON")
	if err := fs.Parse(flagsFirst(args)); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: assistant messages <reference> [--limit n] [--cursor seq] [--json]")
	}
	reference := strings.Trim(strings.TrimSpace(fs.Arg(0)), "/")
	if reference == "" {
		return errors.New("reference is required")
	}

	cfg, client, _, err := c.deps.connect(c.stderr)
	if err != nil {
		return err
	}
	pageSize := *limit
	if pageSize <= 0 {
		pageSize = cfg.UI.PageSizeOrDefault()
	}
	var cursorPtr *int64
	if *cursor > 0 {
		cursorPtr = types.Int64Ptr(*cursor)
	}
	rows, err := client.ListMessages(context.Background(), reference, cursorPtr, pageSize)
	if err != nil {
		return err
	}
	messages := reconcile.Dedupe(reconcile.ToChronologicalStoredMessages(rows))
	if *asJSON {
		if messages == nil {
			messages = []types.Message{}
		}
		return writeJSON(c.stdout, messages)
	}
	printMessages(c.stdout, messages)
	return nil
}

func printMessages(out io.Writer, messages []types.Message) {
	for i, msg := range messages {
		if i > 0 {
			fmt.Fprintln(out)
		}
		header := string(msg.Role)
		if seq, ok := msg.SequenceValue(); ok {
			header = fmt.Sprintf("#%d %s", seq, header)
		}
		if ts := sanitize.Line(msg.CreatedAt, 0); ts != "" {
			header += " " + ts
		}
		fmt.Fprintln(out, header)
		for _, info := range msg.ProcessInfos {
			fmt.Fprintf(out, "  [%s] %s\n", info.State, sanitize.Line(info.Title, 0))
		}
		if text := strings.TrimSpace(sanitize.Text(msg.Content)); text != "" {
			fmt.Fprintln(out, text)
		}
	}
}

// flagsFirst moves positional arguments behind the flags so
// "messages 2026/02/19 --limit 5" parses like the reverse order.
func flagsFirst(args []string) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if !strings.Contains(arg, "=") && i+1 < len(args) && !isBoolFlag(arg) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, positional...)
}

func isBoolFlag(arg string) bool {
	switch strings.TrimLeft(arg, "-") {
	case "json", "h", "help":
		return true
	default:
		return false
	}
}
