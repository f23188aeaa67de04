// Package sanitize makes backend-provided text safe to print on a terminal.
// Message bodies, tool titles and journal labels all come from the server and
// may carry escape sequences that would move the cursor or rewrite the
// clipboard when rendered.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

var escapeSequences = []*regexp.Regexp{
	// CSI: colors, cursor movement, SGR mouse reports.
	regexp.MustCompile(`\x1b\[[<>?=]?[0-9;]*[A-Za-z@^` + "`" + `~{|}!]`),
	// OSC: titles, hyperlinks, clipboard writes.
	regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`),
	// charset designation
	regexp.MustCompile(`\x1b[()][AB012]`),
	// mouse reports whose ESC prefix was already consumed
	regexp.MustCompile(`\[<[0-9]+;[0-9]+;[0-9]+[Mm]`),
}

// StripEscapes removes terminal escape sequences and leaves every other
// character untouched.
func StripEscapes(input string) string {
	for _, re := range escapeSequences {
		input = re.ReplaceAllString(input, "")
	}
	return input
}

// Text sanitizes a multi-line message body. Newlines survive, CRLF becomes LF,
// tabs expand to spaces and remaining control characters are dropped.
func Text(input string) string {
	if input == "" {
		return input
	}
	input = strings.ReplaceAll(StripEscapes(input), "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(strings.Repeat(" ", tabWidth))
		case isControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Line sanitizes text for a single-line slot such as a tool title or a
// journal label. Line breaks and tabs collapse to single spaces and the result
// is truncated to maxWidth cells with an ellipsis. maxWidth <= 0 disables
// truncation.
func Line(input string, maxWidth int) string {
	if input == "" {
		return input
	}
	input = StripEscapes(input)
	var b strings.Builder
	b.Grow(len(input))
	lastSpace := false
	for _, r := range input {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		if isControl(r) {
			continue
		}
		if r == ' ' && lastSpace {
			continue
		}
		lastSpace = r == ' '
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if maxWidth > 0 && runewidth.StringWidth(out) > maxWidth {
		out = runewidth.Truncate(out, maxWidth, "…")
	}
	return out
}

func isControl(r rune) bool {
	return r < 32 || r == 127
}
