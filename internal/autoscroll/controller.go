// Package autoscroll decides, per render tick, how the message viewport
// should move without fighting the user's own scrolling.
package autoscroll

import (
	"math"
	"time"

	"assistant/internal/types"
)

const (
	defaultBottomThreshold   = 20
	defaultResumeThreshold   = 24
	defaultFollowPerSecond   = 900
	defaultCatchupPerSecond  = 900
	forcedCatchupMinDistance = 1
)

// Config holds distances and rates in viewport units (pixels in a browser,
// scaled rows in a terminal).
type Config struct {
	BottomThreshold  float64
	ResumeThreshold  float64
	FollowPerSecond  float64
	CatchupPerSecond float64
}

func DefaultConfig() Config {
	return Config{
		BottomThreshold:  defaultBottomThreshold,
		ResumeThreshold:  defaultResumeThreshold,
		FollowPerSecond:  defaultFollowPerSecond,
		CatchupPerSecond: defaultCatchupPerSecond,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.BottomThreshold <= 0 {
		c.BottomThreshold = def.BottomThreshold
	}
	if c.ResumeThreshold <= 0 {
		c.ResumeThreshold = def.ResumeThreshold
	}
	if c.FollowPerSecond <= 0 {
		c.FollowPerSecond = def.FollowPerSecond
	}
	if c.CatchupPerSecond <= 0 {
		c.CatchupPerSecond = def.CatchupPerSecond
	}
	return c
}

type Inputs struct {
	StreamingInProgress bool
	DistanceFromBottom  float64
	ForceCatchup        bool
}

// Controller holds the only sticky state of the follow logic: whether the
// user has suspended auto-follow, plus the sub-unit step remainder.
type Controller struct {
	config       Config
	suspended    bool
	phase        types.ScrollPhase
	pendingStep  float64
	pendingPhase types.ScrollPhase
}

func New(config Config) *Controller {
	return &Controller{
		config:       config.normalized(),
		phase:        types.ScrollPhaseIdle,
		pendingPhase: types.ScrollPhaseIdle,
	}
}

func (c *Controller) Config() Config {
	return c.config
}

func (c *Controller) Snapshot() types.ScrollSnapshot {
	return types.ScrollSnapshot{Phase: c.phase, Suspended: c.suspended}
}

func (c *Controller) Suspended() bool {
	return c.suspended
}

// MarkSuspended records a user-initiated upward scroll.
func (c *Controller) MarkSuspended() {
	c.suspended = true
}

// MaybeResume is called on every scroll event and clears the suspension once
// the viewport is back within the resume threshold of the bottom.
func (c *Controller) MaybeResume(distanceFromBottom float64) bool {
	if distanceFromBottom <= c.config.ResumeThreshold {
		c.suspended = false
	}
	return !c.suspended
}

// Resume clears a suspension regardless of position, e.g. when the user
// sends a message.
func (c *Controller) Resume() {
	c.suspended = false
}

func (c *Controller) NextPhase(in Inputs) types.ScrollSnapshot {
	c.phase = Phase(c.config, c.suspended, in)
	return c.Snapshot()
}

// Phase is the pure transition function behind NextPhase.
func Phase(config Config, suspended bool, in Inputs) types.ScrollPhase {
	config = config.normalized()
	switch {
	case suspended:
		return types.ScrollPhaseIdle
	case in.StreamingInProgress:
		return types.ScrollPhaseStreamFollow
	case in.ForceCatchup && in.DistanceFromBottom > forcedCatchupMinDistance:
		return types.ScrollPhaseCatchup
	case in.DistanceFromBottom > config.BottomThreshold:
		return types.ScrollPhaseCatchup
	default:
		return types.ScrollPhaseIdle
	}
}

// StepForPhase returns the unrounded distance to move for the elapsed time.
func (c *Controller) StepForPhase(phase types.ScrollPhase, delta time.Duration) float64 {
	if delta <= 0 {
		return 0
	}
	ms := float64(delta) / float64(time.Millisecond)
	switch phase {
	case types.ScrollPhaseStreamFollow:
		return c.config.FollowPerSecond * ms / 1000
	case types.ScrollPhaseCatchup:
		return c.config.CatchupPerSecond * ms / 1000
	default:
		return 0
	}
}

// ConsumeStep accumulates fractional steps and only returns whole units.
// Switching phase or going idle drops the remainder.
func (c *Controller) ConsumeStep(phase types.ScrollPhase, delta time.Duration) int {
	if phase == types.ScrollPhaseIdle {
		c.pendingStep = 0
		c.pendingPhase = phase
		return 0
	}
	if c.pendingPhase != phase {
		c.pendingStep = 0
		c.pendingPhase = phase
	}
	c.pendingStep += c.StepForPhase(phase, delta)
	whole := math.Floor(c.pendingStep)
	if whole > 0 {
		c.pendingStep -= whole
	}
	return int(whole)
}

func DistanceFromBottom(scrollHeight, scrollTop, clientHeight float64) float64 {
	return math.Max(scrollHeight-(scrollTop+clientHeight), 0)
}
