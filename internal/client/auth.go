package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"assistant/internal/types"
)

// CurrentUser returns nil without error when the session is not
// authenticated.
func (c *Client) CurrentUser(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		if IsUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	req := LoginRequest{
		Email:          email,
		Password:       password,
		SessionMode:    "web",
		IssuancePolicy: "session",
	}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, nil)
}

// Logout ends the backend session and forgets the local cookies even when
// the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if resetErr := c.cookies.reset(); resetErr != nil && err == nil {
		err = resetErr
	}
	return err
}
