// Package trafficlight sequences a single pixel through green, yellow and red.
// Each phase measures its own duration from the time it was entered.
package trafficlight

import (
	"time"

	"github.com/librescoot/loopfsm"
	"github.com/librescoot/loopfsm/demo/pixel"
)

// Durations holds how long each phase stays lit
type Durations struct {
	Green  time.Duration `yaml:"green"`
	Yellow time.Duration `yaml:"yellow"`
	Red    time.Duration `yaml:"red"`
}

// DefaultDurations returns 3s green, 1s yellow, 3s red
func DefaultDurations() Durations {
	return Durations{
		Green:  3 * time.Second,
		Yellow: 1 * time.Second,
		Red:    3 * time.Second,
	}
}

// Start enters the green phase
func Start(m *loopfsm.Machine, light pixel.Light, d Durations) error {
	return m.TransitionTo(NewGreen(light, d))
}

// phase is the behaviour shared by all three lights: show a color on entry,
// move on once the phase duration has elapsed.
type phase struct {
	loopfsm.BaseState
	name  string
	color pixel.Color
	light pixel.Light
	d     Durations
	timer loopfsm.Timer
	next  func(pixel.Light, Durations) loopfsm.State
}

func (p *phase) Name() string { return p.name }

func (p *phase) Enter(ctx *loopfsm.Context) {
	ctx.Logger.Info("traffic light", "state", p.name)
	p.light.Set(p.color)
	p.timer.Start(ctx.Now)
}

func (p *phase) Update(ctx *loopfsm.Context) {
	if p.timer.Expired(ctx.Now) {
		ctx.TransitionTo(p.next(p.light, p.d))
	}
}

// NewGreen creates the green phase; it hands over to yellow
func NewGreen(light pixel.Light, d Durations) loopfsm.State {
	return &phase{
		name:  "Green",
		color: pixel.Green,
		light: light,
		d:     d,
		timer: loopfsm.Timer{Duration: d.Green},
		next:  NewYellow,
	}
}

// NewYellow creates the yellow phase; it hands over to red
func NewYellow(light pixel.Light, d Durations) loopfsm.State {
	return &phase{
		name:  "Yellow",
		color: pixel.Yellow,
		light: light,
		d:     d,
		timer: loopfsm.Timer{Duration: d.Yellow},
		next:  NewRed,
	}
}

// NewRed creates the red phase; it hands over to green
func NewRed(light pixel.Light, d Durations) loopfsm.State {
	return &phase{
		name:  "Red",
		color: pixel.Red,
		light: light,
		d:     d,
		timer: loopfsm.Timer{Duration: d.Red},
		next:  NewGreen,
	}
}
