// Package media models the playback surface the timeline engine drives:
// current time, duration and playback rate.
package media

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrInvalidMedia reports a media surface that cannot back a timeline.
var ErrInvalidMedia = errors.New("invalid media")

// Element is the black-box media surface the engine reads and writes.
type Element interface {
	CurrentTime() float64
	SetCurrentTime(t float64)
	Duration() float64
	PlaybackRate() float64
	SetPlaybackRate(rate float64)
}

// Player is an Element that can be started and stopped.
type Player interface {
	Element
	Playing() bool
	Play()
	Pause()
}

// ValidateDuration checks that d can bound a timeline.
func ValidateDuration(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return fmt.Errorf("%w: duration %v must be a positive number of seconds", ErrInvalidMedia, d)
	}
	return nil
}

// Clock is a simulated player. Position advances with wall time scaled by
// the playback rate and stops at the end of the media.
type Clock struct {
	mu       sync.Mutex
	now      func() time.Time
	duration float64
	pos      float64 // position at anchor
	anchor   time.Time
	rate     float64
	playing  bool
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithNow overrides the wall clock, for tests.
func WithNow(fn func() time.Time) ClockOption {
	return func(c *Clock) { c.now = fn }
}

// NewClock creates a paused clock at position zero.
func NewClock(duration float64, opts ...ClockOption) (*Clock, error) {
	if err := ValidateDuration(duration); err != nil {
		return nil, err
	}
	c := &Clock{duration: duration, rate: 1, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.anchor = c.now()
	return c, nil
}

// Duration implements Element.
func (c *Clock) Duration() float64 {
	return c.duration
}

// CurrentTime implements Element.
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked(c.now())
}

// SetCurrentTime implements Element. Seeks are clamped to [0, duration].
func (c *Clock) SetCurrentTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = clamp(t, 0, c.duration)
	c.anchor = c.now()
}

// PlaybackRate implements Element.
func (c *Clock) PlaybackRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// SetPlaybackRate implements Element. Non-positive rates are ignored.
func (c *Clock) SetPlaybackRate(rate float64) {
	if rate <= 0 || math.IsNaN(rate) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate == c.rate {
		return
	}
	now := c.now()
	c.pos = c.positionLocked(now)
	c.anchor = now
	c.rate = rate
}

// Playing implements Player.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionLocked(c.now())
	return c.playing
}

// Play implements Player. Playing from the end restarts at zero.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	if c.pos >= c.duration {
		c.pos = 0
	}
	c.anchor = c.now()
	c.playing = true
}

// Pause implements Player.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.pos = c.positionLocked(now)
	c.anchor = now
	c.playing = false
}

// Toggle flips between playing and paused.
func (c *Clock) Toggle() {
	if c.Playing() {
		c.Pause()
	} else {
		c.Play()
	}
}

func (c *Clock) positionLocked(now time.Time) float64 {
	if !c.playing {
		return c.pos
	}
	t := c.pos + now.Sub(c.anchor).Seconds()*c.rate
	if t >= c.duration {
		c.pos = c.duration
		c.anchor = now
		c.playing = false
		return c.duration
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

var _ Player = (*Clock)(nil)
