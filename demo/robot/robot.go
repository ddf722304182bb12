// Package robot is a bump-and-avoid controller: it drives forward blinking
// the pixel until the bump sensor is released, then backs off for a while.
package robot

import (
	"time"

	"github.com/librescoot/loopfsm"
	"github.com/librescoot/loopfsm/demo/pixel"
)

// Button is a bump sensor edge as reported by the keypad scanner
type Button struct {
	Key      int
	Released bool
}

// Pressed reports whether this is a press edge
func (b Button) Pressed() bool { return !b.Released }

// Timing configures the controller
type Timing struct {
	Blink time.Duration `yaml:"blink"`
	Avoid time.Duration `yaml:"avoid"`
}

// DefaultTiming blinks every 0.5s and avoids for 2s
func DefaultTiming() Timing {
	return Timing{
		Blink: 500 * time.Millisecond,
		Avoid: 2 * time.Second,
	}
}

// Start enters MovingForward
func Start(m *loopfsm.Machine, light pixel.Light, t Timing) error {
	return m.TransitionTo(NewMovingForward(light, t))
}

// MovingForward blinks the pixel green and reacts to sensor releases
type MovingForward struct {
	loopfsm.BaseState
	light   pixel.Light
	timing  Timing
	blink   loopfsm.Timer
	pixelOn bool
}

func NewMovingForward(light pixel.Light, t Timing) *MovingForward {
	return &MovingForward{light: light, timing: t}
}

func (s *MovingForward) Name() string { return "MovingForward" }

func (s *MovingForward) Enter(ctx *loopfsm.Context) {
	ctx.Logger.Info("robot", "state", s.Name())
	s.pixelOn = false
	s.blink = loopfsm.NewTimer(s.timing.Blink, ctx.Now)
}

func (s *MovingForward) Update(ctx *loopfsm.Context) {
	if !s.blink.Restart(ctx.Now) {
		return
	}
	if s.pixelOn {
		s.light.Set(pixel.Green)
	} else {
		s.light.Set(pixel.Off)
	}
	s.pixelOn = !s.pixelOn
}

func (s *MovingForward) HandleEvent(ctx *loopfsm.Context, ev loopfsm.Event) {
	b, ok := ev.(Button)
	if !ok || !b.Released {
		return
	}
	ctx.TransitionTo(NewAvoiding(s.light, s.timing))
}

// PixelOn reports whether the next blink lights the pixel
func (s *MovingForward) PixelOn() bool { return s.pixelOn }

// Avoiding shows blue and returns to MovingForward after the avoid time
type Avoiding struct {
	loopfsm.BaseState
	light  pixel.Light
	timing Timing
	timer  loopfsm.Timer
}

func NewAvoiding(light pixel.Light, t Timing) *Avoiding {
	return &Avoiding{light: light, timing: t}
}

func (s *Avoiding) Name() string { return "Avoiding" }

func (s *Avoiding) Enter(ctx *loopfsm.Context) {
	ctx.Logger.Info("robot", "state", s.Name())
	s.light.Set(pixel.Blue)
	s.timer = loopfsm.NewTimer(s.timing.Avoid, ctx.Now)
}

func (s *Avoiding) Update(ctx *loopfsm.Context) {
	if s.timer.Expired(ctx.Now) {
		ctx.Logger.Info("avoidance complete")
		ctx.TransitionTo(NewMovingForward(s.light, s.timing))
	}
}
