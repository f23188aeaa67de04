package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"assistant/internal/journal"
	"assistant/internal/sanitize"
)

type LoginCommand struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	deps   commandDeps
}

func NewLoginCommand(stdout, stderr io.Writer, stdin io.Reader, deps commandDeps) *LoginCommand {
	return &LoginCommand{
		stdout: stdout,
		stderr: stderr,
		stdin:  stdin,
		deps:   deps,
	}
}

func (c *LoginCommand) Run(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	password, err := readPassword(c.stdin, c.stderr)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	_, client, _, err := c.deps.connect(c.stderr)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := client.Login(ctx, strings.TrimSpace(*email), password); err != nil {
		return err
	}
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("login was not accepted")
	}
	fmt.Fprintf(c.stdout, "logged in as %s <%s>\n", sanitize.Line(user.Name, 0), sanitize.Line(user.Email, 0))
	return nil
}

// LogoutCommand ends the backend session and removes the cached snapshot
// and any pending stream marker.
type LogoutCommand struct {
	stdout io.Writer
	stderr io.Writer
	deps   commandDeps
}

func NewLogoutCommand(stdout, stderr io.Writer, deps commandDeps) *LogoutCommand {
	return &LogoutCommand{
		stdout: stdout,
		stderr: stderr,
		deps:   deps,
	}
}

func (c *LogoutCommand) Run(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, client, logger, err := c.deps.connect(c.stderr)
	if err != nil {
		return err
	}
	snapshots, err := c.deps.openStore(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(snapshots, logger)

	session := journal.New(client, snapshots, journal.Options{Logger: logger})
	if err := session.Logout(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "logged out")
	return nil
}
