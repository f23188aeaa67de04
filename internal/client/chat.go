package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// SendMessage posts a user turn and returns the id of the stream carrying the
// assistant's reply.
func (c *Client) SendMessage(ctx context.Context, reference, text, clientMessageID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("message is required")
	}
	req := SendMessageRequest{
		Message:         text,
		ClientMessageID: clientMessageID,
		Reference:       reference,
	}
	var resp SendMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat/message", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.StreamID) == "" {
		return "", errors.New("backend returned no stream id")
	}
	return resp.StreamID, nil
}
