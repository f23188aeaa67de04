package app

import (
	"time"

	"charm.land/bubbles/v2/viewport"

	"assistant/internal/autoscroll"
	"assistant/internal/config"
	"assistant/internal/types"
)

const wheelRows = 3

// scrollFollower drives the message viewport from the autoscroll controller.
// The controller works in pixels, the viewport in rows; rowHeight converts
// between the two and carry keeps the sub-row remainder.
type scrollFollower struct {
	ctrl         *autoscroll.Controller
	rowHeight    int
	forceCatchup bool
	carry        int
}

func newScrollFollower(cfg config.UIConfig) *scrollFollower {
	return &scrollFollower{
		ctrl: autoscroll.New(autoscroll.Config{
			FollowPerSecond:  cfg.FollowRate(),
			CatchupPerSecond: cfg.CatchupRate(),
		}),
		rowHeight: cfg.RowHeight(),
	}
}

func (f *scrollFollower) distance(vp *viewport.Model) float64 {
	rows := vp.TotalLineCount() - (vp.YOffset() + vp.Height())
	if rows < 0 {
		rows = 0
	}
	return float64(rows * f.rowHeight)
}

// userScroll applies a user gesture. Moving up suspends following only while
// a visible turn streams; between turns it just moves the viewport. Every
// gesture may resume following near the bottom.
func (f *scrollFollower) userScroll(vp *viewport.Model, rows int, streaming bool) {
	switch {
	case rows < 0:
		vp.ScrollUp(-rows)
		f.forceCatchup = false
		f.carry = 0
		f.ctrl.MaybeResume(f.distance(vp))
		if streaming {
			f.ctrl.MarkSuspended()
		}
		return
	case rows > 0:
		vp.ScrollDown(rows)
	}
	f.ctrl.MaybeResume(f.distance(vp))
}

func (f *scrollFollower) jumpToBottom(vp *viewport.Model) {
	vp.GotoBottom()
	f.ctrl.MaybeResume(f.distance(vp))
	f.carry = 0
}

// requestCatchup asks the next steps to bring the viewport to the bottom,
// e.g. after the user sends a message. An earlier suspension is dropped.
func (f *scrollFollower) requestCatchup() {
	f.forceCatchup = true
	f.ctrl.Resume()
}

// turnFinished settles a follower that was still following at the bottom
// once the final message lands.
func (f *scrollFollower) turnFinished() {
	if !f.ctrl.Suspended() {
		f.forceCatchup = true
	}
}

// step advances the viewport for the elapsed time and returns the phase used.
func (f *scrollFollower) step(vp *viewport.Model, streaming bool, elapsed time.Duration) types.ScrollSnapshot {
	dist := f.distance(vp)
	if !streaming && !f.forceCatchup {
		// between turns the viewport only moves on request
		dist = 0
	}
	snap := f.ctrl.NextPhase(autoscroll.Inputs{
		StreamingInProgress: streaming,
		DistanceFromBottom:  dist,
		ForceCatchup:        f.forceCatchup,
	})
	px := f.ctrl.ConsumeStep(snap.Phase, elapsed)
	if snap.Phase == types.ScrollPhaseIdle || dist <= 0 {
		f.carry = 0
		if dist <= 0 {
			f.forceCatchup = false
		}
		return snap
	}
	f.carry += px
	if rows := f.carry / f.rowHeight; rows > 0 {
		f.carry -= rows * f.rowHeight
		vp.ScrollDown(rows)
	}
	if f.distance(vp) <= 0 {
		f.forceCatchup = false
	}
	return snap
}

func (f *scrollFollower) suspended() bool {
	return f.ctrl.Suspended()
}
