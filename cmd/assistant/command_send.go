package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"assistant/internal/config"
	"assistant/internal/logging"
	"assistant/internal/reconcile"
	"assistant/internal/sanitize"
	"assistant/internal/streamsession"
	"assistant/internal/types"
)

const replyFinishedHint = "the reply already finished; `assistant messages` shows it"

var (
	errStreamClosed    = errors.New("stream closed before the reply finished; run `assistant send` without text to follow it")
	errNothingToFollow = errors.New("no reply is streaming; pass the message text to send one")
)

// SendCommand sends one message and streams the reply to stdout. Tool
// progress goes to stderr. Without text it follows a reply left streaming by
// an earlier run.
type SendCommand struct {
	stdout io.Writer
	stderr io.Writer
	deps   commandDeps
}

func NewSendCommand(stdout, stderr io.Writer, deps commandDeps) *SendCommand {
	return &SendCommand{
		stdout: stdout,
		stderr: stderr,
		deps:   deps,
	}
}

func (c *SendCommand) Run(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	reference := fs.String("reference", "", "journal to send to (defaults to today)")
	if err := fs.Parse(flagsFirst(args)); err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))

	cfg, client, logger, err := c.deps.connect(c.stderr)
	if err != nil {
		return err
	}
	snapshots, err := c.deps.openStore(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(snapshots, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	streams := streamsession.New(client, client, snapshots, logger)
	defer streams.Detach()

	resumed, err := streams.Resume(ctx)
	if err != nil {
		return err
	}
	if resumed {
		if text != "" {
			return streamsession.ErrStreamInProgress
		}
		pending, _ := streams.Pending()
		fmt.Fprintf(c.stderr, "following reply in %s\n", sanitize.Line(pending.Reference, 0))
		if err := streams.SetCurrentReference(ctx, pending.Reference); err != nil {
			if errors.Is(err, streamsession.ErrStreamGone) {
				fmt.Fprintln(c.stderr, replyFinishedHint)
				return nil
			}
			return err
		}
		return c.follow(ctx, cfg, streams)
	}
	if text == "" {
		return errNothingToFollow
	}

	target := strings.Trim(strings.TrimSpace(*reference), "/")
	if target == "" {
		today, err := client.Today(ctx, true)
		if err != nil {
			return err
		}
		if today == nil || strings.TrimSpace(today.Reference) == "" {
			return errors.New("today's journal is unavailable")
		}
		target = today.Reference
	}
	if err := streams.SetCurrentReference(ctx, target); err != nil {
		return err
	}
	session, err := streams.Start(ctx, target, text, reconcile.NewClientMessageID())
	if err != nil {
		var failure *streamsession.SendFailure
		if errors.As(err, &failure) {
			return err
		}
		if errors.Is(err, streamsession.ErrStreamGone) {
			fmt.Fprintln(c.stderr, replyFinishedHint)
			return nil
		}
		logger.Warn("stream_attach_failed", logging.F("stream_id", session.StreamID), logging.F("error", err))
		return fmt.Errorf("%w; run `assistant send` without text to follow it", err)
	}
	return c.follow(ctx, cfg, streams)
}

func (c *SendCommand) follow(ctx context.Context, cfg config.Config, streams *streamsession.Manager) error {
	printer := newReplyPrinter(c.stdout, c.stderr)
	ticker := time.NewTicker(cfg.UI.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			printer.endLine()
			return ctx.Err()
		case <-ticker.C:
		}
		update := streams.Drain(ctx, cfg.UI.EventsPerTick())
		if update.Finished && update.Final != nil {
			printer.print(*update.Final)
			printer.endLine()
			if update.Failed {
				if update.Error != "" {
					return errors.New(update.Error)
				}
				return errors.New("assistant reply failed")
			}
			return nil
		}
		if msg, ok := streams.Message(); ok && update.Changed {
			printer.print(msg)
		}
		if update.Closed {
			printer.endLine()
			return errStreamClosed
		}
	}
}

// replyPrinter writes the unseen suffix of a growing assistant message.
type replyPrinter struct {
	stdout  io.Writer
	stderr  io.Writer
	written int
	tools   map[string]types.ToolState
	dirty   bool
}

func newReplyPrinter(stdout, stderr io.Writer) *replyPrinter {
	return &replyPrinter{
		stdout: stdout,
		stderr: stderr,
		tools:  map[string]types.ToolState{},
	}
}

func (p *replyPrinter) print(msg types.Message) {
	for _, info := range msg.ProcessInfos {
		if p.tools[info.ID] == info.State {
			continue
		}
		p.tools[info.ID] = info.State
		title := sanitize.Line(info.Title, 0)
		if title == "" {
			title = "tool"
		}
		line := fmt.Sprintf("[%s] %s", info.State, title)
		if desc := sanitize.Line(info.Description, 0); desc != "" {
			line += " · " + desc
		}
		fmt.Fprintln(p.stderr, line)
	}
	if len(msg.Content) <= p.written {
		return
	}
	delta := msg.Content[p.written:]
	p.written = len(msg.Content)
	if out := sanitize.Text(delta); out != "" {
		fmt.Fprint(p.stdout, out)
		p.dirty = !strings.HasSuffix(out, "\n")
	}
}

func (p *replyPrinter) endLine() {
	if p.dirty {
		fmt.Fprintln(p.stdout)
		p.dirty = false
	}
}
