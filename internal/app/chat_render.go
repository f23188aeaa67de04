package app

import (
	"strings"

	"charm.land/lipgloss/v2"

	"assistant/internal/journal"
	"assistant/internal/sanitize"
	"assistant/internal/types"
)

const (
	thinkingLabel   = "Thinking ..."
	olderHint       = "↑ older messages available (ctrl+l)"
	emptyTranscript = "No messages yet. Say hello."
	minBubbleWidth  = 10
)

// renderTranscript lays out the whole message list plus the in-flight turn.
func renderTranscript(view journal.View, width int, spinnerFrame string) string {
	if width <= 0 {
		width = 80
	}
	lines := make([]string, 0, len(view.Messages)*4+2)
	if view.HasOlder {
		lines = append(lines, chatMetaStyle.Render(olderHint), "")
	}
	for _, msg := range view.Messages {
		block := renderMessage(msg, width, false)
		if len(block) == 0 {
			continue
		}
		lines = append(lines, block...)
		lines = append(lines, "")
	}
	if view.Streaming != nil {
		if view.Thinking {
			lines = append(lines, renderThinking(width, spinnerFrame)...)
		} else {
			lines = append(lines, renderMessage(*view.Streaming, width, true)...)
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return chatMetaStyle.Render(emptyTranscript)
	}
	return strings.Join(lines, "\n")
}

func renderMessage(msg types.Message, width int, streaming bool) []string {
	innerWidth := bubbleInnerWidth(width)
	text := strings.TrimSpace(sanitize.Text(msg.Content))
	tools := renderToolLines(msg.ProcessInfos, innerWidth)
	if text == "" && len(tools) == 0 {
		return nil
	}

	if msg.Role == types.MessageRoleUser {
		bubble := userBubbleStyle.Render(renderPlain(text, innerWidth))
		return strings.Split(lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble), "\n")
	}

	parts := make([]string, 0, 2)
	if len(tools) > 0 {
		parts = append(parts, strings.Join(tools, "\n"))
	}
	if text != "" {
		parts = append(parts, renderMarkdown(text, innerWidth))
	}
	style := assistantBubbleStyle
	if streaming {
		style = streamingBubbleStyle
	}
	bubble := style.Render(strings.Join(parts, "\n"))
	return strings.Split(lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble), "\n")
}

func renderThinking(width int, spinnerFrame string) []string {
	label := thinkingLabel
	if frame := strings.TrimSpace(spinnerFrame); frame != "" {
		label = frame + " " + label
	}
	bubble := streamingBubbleStyle.Render(thinkingStyle.Render(label))
	return strings.Split(lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble), "\n")
}

// renderToolLines renders one line per tool call, e.g.
// "✓ Search web · found 3 results".
func renderToolLines(infos []types.ToolStatus, width int) []string {
	if len(infos) == 0 {
		return nil
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		icon, style := toolGlyph(info.State)
		title := sanitize.Line(info.Title, 0)
		if title == "" {
			title = "tool"
		}
		line := icon + " " + title
		if desc := sanitize.Line(info.Description, 0); desc != "" {
			line += " · " + desc
		}
		out = append(out, style.Render(sanitize.Line(line, width)))
	}
	return out
}

func toolGlyph(state types.ToolState) (string, lipgloss.Style) {
	switch state {
	case types.ToolStateResolved:
		return "✓", toolResolvedStyle
	case types.ToolStateError:
		return "✗", toolErrorStyle
	case types.ToolStateInterrupted:
		return "■", toolInterruptedStyle
	default:
		return "…", toolPendingStyle
	}
}

func bubbleInnerWidth(width int) int {
	maxBubbleWidth := width - 4
	if maxBubbleWidth < minBubbleWidth {
		maxBubbleWidth = width
	}
	// border and horizontal padding on both sides
	inner := maxBubbleWidth - 2 - 2*chatBubblePaddingHorizontal
	if inner < 1 {
		inner = 1
	}
	return inner
}

// lastAssistantText is what ctrl+y copies.
func lastAssistantText(view journal.View) string {
	if view.Streaming != nil && strings.TrimSpace(view.Streaming.Content) != "" {
		return sanitize.Text(view.Streaming.Content)
	}
	for i := len(view.Messages) - 1; i >= 0; i-- {
		msg := view.Messages[i]
		if msg.Role == types.MessageRoleAssistant && strings.TrimSpace(msg.Content) != "" {
			return sanitize.Text(msg.Content)
		}
	}
	return ""
}
