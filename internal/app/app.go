// Package app is the terminal client: a single bubbletea event loop over a
// journal session.
package app

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, session Session, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Context = ctx
	model := NewModel(session, opts)
	p := tea.NewProgram(&model, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
