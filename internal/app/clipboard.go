package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

type clipboardMethod uint8

const (
	clipboardMethodSystem clipboardMethod = iota
	clipboardMethodOSC52
)

func (m clipboardMethod) String() string {
	if m == clipboardMethodOSC52 {
		return "osc52"
	}
	return "system"
}

var (
	clipboardWriteAll   = clipboard.WriteAll
	clipboardWriteOSC52 = writeOSC52Clipboard
	openTTYForWrite     = func() (io.WriteCloser, error) {
		return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	}
)

type clipboardResultMsg struct {
	method clipboardMethod
	err    error
}

// copyCmd copies text off the UI goroutine; clipboard helpers can hang when
// no display is reachable.
func copyCmd(ctx context.Context, text string) tea.Cmd {
	return func() tea.Msg {
		method, err := copyWithContext(ctx, text)
		return clipboardResultMsg{method: method, err: err}
	}
}

func copyWithContext(ctx context.Context, text string) (clipboardMethod, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	type result struct {
		method clipboardMethod
		err    error
	}
	done := make(chan result, 1)
	go func() {
		method, err := copyTextToClipboard(text)
		done <- result{method: method, err: err}
	}()
	select {
	case <-ctx.Done():
		return clipboardMethodSystem, ctx.Err()
	case res := <-done:
		return res.method, res.err
	}
}

func copyTextToClipboard(text string) (clipboardMethod, error) {
	err := clipboardWriteAll(text)
	if err == nil {
		return clipboardMethodSystem, nil
	}
	oscErr := clipboardWriteOSC52(text)
	if oscErr == nil {
		return clipboardMethodOSC52, nil
	}
	return clipboardMethodSystem, combineClipboardErrors(err, oscErr)
}

func writeOSC52Clipboard(text string) error {
	if !shouldAttemptOSC52() {
		return errors.New("OSC52 unavailable for this terminal")
	}
	tty, err := openTTYForWrite()
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return writeOSC52Sequence(tty, text)
}

func writeOSC52Sequence(w io.Writer, text string) error {
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		// plain first, then wrapped, so either tmux clipboard setting works
		if _, err := seq.WriteTo(w); err != nil {
			return err
		}
		_, err := seq.Tmux().WriteTo(w)
		return err
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))), "screen"):
		_, err := seq.Screen().WriteTo(w)
		return err
	default:
		_, err := seq.WriteTo(w)
		return err
	}
}

func shouldAttemptOSC52() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ASSISTANT_DISABLE_OSC52"))) {
	case "1", "true", "yes", "on":
		return false
	}
	termName := strings.TrimSpace(os.Getenv("TERM"))
	return termName != "" && !strings.EqualFold(termName, "dumb")
}

func combineClipboardErrors(systemErr, oscErr error) error {
	oscMsg := humanizeClipboardError(oscErr)
	if missingDisplay() {
		return fmt.Errorf("no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset); OSC52 fallback failed: %s", oscMsg)
	}
	return fmt.Errorf("system clipboard failed: %s; OSC52 fallback failed: %s", humanizeClipboardError(systemErr), oscMsg)
}

func humanizeClipboardError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "exit status 1" {
		if missingDisplay() {
			return "no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset)"
		}
		return "clipboard helper exited with status 1"
	}
	return msg
}

func missingDisplay() bool {
	return strings.TrimSpace(os.Getenv("DISPLAY")) == "" && strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) == ""
}
