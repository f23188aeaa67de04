package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"assistant/internal/types"
)

const defaultMessagesLimit = 100

func (c *Client) ListJournals(ctx context.Context) ([]types.JournalEntry, error) {
	var entries []types.JournalEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/journal", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) SearchJournals(ctx context.Context, query string, limit int) ([]types.JournalEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var entries []types.JournalEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/journal/search?"+params.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) Today(ctx context.Context, create bool) (*types.JournalEntry, error) {
	path := "/api/journal/today"
	if create {
		path += "?create=true"
	}
	var entry types.JournalEntry
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) Summary(ctx context.Context, reference string) (*types.JournalEntry, error) {
	reference = strings.Trim(strings.TrimSpace(reference), "/")
	if reference == "" {
		return nil, errors.New("reference is required")
	}
	var entry types.JournalEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/journal/"+escapeReference(reference), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListMessages returns one page of raw message rows. A nil cursor asks for the
// newest page; otherwise rows older than the cursor sequence are returned.
func (c *Client) ListMessages(ctx context.Context, reference string, cursor *int64, limit int) ([]types.JournalMessage, error) {
	reference = strings.Trim(strings.TrimSpace(reference), "/")
	if reference == "" {
		return nil, errors.New("reference is required")
	}
	if limit <= 0 {
		limit = defaultMessagesLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != nil {
		params.Set("cursor", strconv.FormatInt(*cursor, 10))
	}
	path := "/api/journal/" + escapeReference(reference) + "/messages?" + params.Encode()
	var rows []types.JournalMessage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) ListTodayMessages(ctx context.Context, limit int) ([]types.JournalMessage, error) {
	if limit <= 0 {
		limit = defaultMessagesLimit
	}
	var rows []types.JournalMessage
	path := "/api/journal/today/messages?limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// escapeReference keeps the slashes of a date reference like 2026/02/19.
func escapeReference(reference string) string {
	parts := strings.Split(reference, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
