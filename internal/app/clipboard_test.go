package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func stubClipboard(t *testing.T, system, osc func(string) error) {
	t.Helper()
	origWriteAll := clipboardWriteAll
	origWriteOSC52 := clipboardWriteOSC52
	t.Cleanup(func() {
		clipboardWriteAll = origWriteAll
		clipboardWriteOSC52 = origWriteOSC52
	})
	clipboardWriteAll = system
	clipboardWriteOSC52 = osc
}

func TestCopyTextToClipboardUsesSystemBackend(t *testing.T) {
	fallbackCalled := false
	stubClipboard(t,
		func(string) error { return nil },
		func(string) error {
			fallbackCalled = true
			return nil
		},
	)

	method, err := copyTextToClipboard("hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if method != clipboardMethodSystem {
		t.Fatalf("expected system method, got %v", method)
	}
	if fallbackCalled {
		t.Fatalf("expected no OSC52 fallback call")
	}
}

func TestCopyTextToClipboardFallsBackToOSC52(t *testing.T) {
	stubClipboard(t,
		func(string) error { return errors.New("exit status 1") },
		func(string) error { return nil },
	)

	method, err := copyTextToClipboard("hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if method != clipboardMethodOSC52 {
		t.Fatalf("expected OSC52 method, got %v", method)
	}
}

func TestCopyTextToClipboardHelpfulErrorWhenDisplayMissing(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	stubClipboard(t,
		func(string) error { return errors.New("exit status 1") },
		func(string) error { return errors.New("open /dev/tty: no such device") },
	)

	_, err := copyTextToClipboard("hello")
	if err == nil {
		t.Fatalf("expected copy error")
	}
	if !strings.Contains(err.Error(), "no GUI clipboard available") {
		t.Fatalf("expected no-display guidance, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "OSC52 fallback failed") {
		t.Fatalf("expected OSC52 fallback details, got %q", err.Error())
	}
}

func TestWriteOSC52ClipboardReportsTTYError(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("ASSISTANT_DISABLE_OSC52", "")
	origOpenTTY := openTTYForWrite
	t.Cleanup(func() { openTTYForWrite = origOpenTTY })
	openTTYForWrite = func() (io.WriteCloser, error) {
		return nil, os.ErrNotExist
	}

	err := writeOSC52Clipboard("hello")
	if err == nil || !strings.Contains(err.Error(), "open /dev/tty") {
		t.Fatalf("expected /dev/tty error, got %v", err)
	}
}

func TestWriteOSC52ClipboardHonorsDisableEnv(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("ASSISTANT_DISABLE_OSC52", "true")
	if err := writeOSC52Clipboard("hello"); err == nil {
		t.Fatalf("expected OSC52 to be disabled")
	}
}

func TestWriteOSC52SequenceEncodesPayload(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("TERM", "xterm-256color")
	var buf bytes.Buffer
	if err := writeOSC52Sequence(&buf, "hello"); err != nil {
		t.Fatalf("write: %v", err)
	}
	// base64("hello")
	if !strings.Contains(buf.String(), "aGVsbG8=") {
		t.Fatalf("expected base64 payload, got %q", buf.String())
	}
}

func TestCopyWithContextHonorsCancellation(t *testing.T) {
	stubClipboard(t,
		func(string) error {
			time.Sleep(40 * time.Millisecond)
			return nil
		},
		func(string) error { return nil },
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := copyWithContext(ctx, "hello")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
