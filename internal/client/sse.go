package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"assistant/internal/logging"
	"assistant/internal/types"
)

// OpenStream attaches to a live assistant turn. The returned channel closes
// when the backend ends the stream, the connection drops or cancel is called.
func (c *Client) OpenStream(ctx context.Context, streamID string) (<-chan types.StreamEvent, func(), error) {
	streamID = strings.TrimSpace(streamID)
	if streamID == "" {
		return nil, nil, errors.New("stream id is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	endpoint := c.endpoint("/api/chat/stream/" + url.PathEscape(streamID))
	logger := c.logger.With(logging.F("stream_id", streamID))
	if c.streamDebug {
		logger.Info("stream_open", logging.F("url", endpoint))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		if c.streamDebug {
			logger.Warn("stream_open_failed", logging.F("status", resp.StatusCode))
		}
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan types.StreamEvent, 256)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		start := time.Now()
		count := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		eventName := ""
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 && eventName == "" {
					continue
				}
				event, ok := parseStreamEvent(eventName, strings.Join(dataLines, "\n"))
				eventName = ""
				dataLines = dataLines[:0]
				if !ok {
					continue
				}
				select {
				case ch <- event:
				case <-ctx.Done():
					return
				}
				count++
				if count == 1 && c.streamDebug {
					logger.Info("stream_first_event", logging.F("type", string(event.Type)))
				}
				continue
			}
			switch {
			case strings.HasPrefix(line, ":"):
			case strings.HasPrefix(line, "event:"):
				eventName = strings.TrimSpace(line[len("event:"):])
			case strings.HasPrefix(line, "data:"):
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil && c.streamDebug && ctx.Err() == nil {
			logger.Warn("stream_scan_error", logging.F("error", err))
		}
		if c.streamDebug {
			logger.Info("stream_close", logging.F("count", count), logging.F("duration", time.Since(start)))
		}
	}()

	return ch, cancel, nil
}

// parseStreamEvent decodes one SSE frame. Frames with an unknown event name
// or an unreadable payload are skipped.
func parseStreamEvent(name, payload string) (types.StreamEvent, bool) {
	eventType := types.StreamEventType(strings.TrimSpace(name))
	switch eventType {
	case types.StreamEventToolCall,
		types.StreamEventMessageChunk,
		types.StreamEventToolResponse,
		types.StreamEventError,
		types.StreamEventDone:
	default:
		return types.StreamEvent{}, false
	}
	var data streamEventData
	if strings.TrimSpace(payload) != "" {
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			return types.StreamEvent{}, false
		}
	}
	event := types.StreamEvent{
		Type:        eventType,
		ToolCallID:  data.ToolCallID,
		Title:       data.Title,
		Description: data.Description,
		Text:        data.Text,
		Message:     data.Message,
		Reason:      data.Reason,
	}
	switch eventType {
	case types.StreamEventToolCall, types.StreamEventToolResponse:
		if event.ToolCallID == "" {
			return types.StreamEvent{}, false
		}
	}
	return event, true
}
