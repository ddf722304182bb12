package robot

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/loopfsm"
	"github.com/librescoot/loopfsm/demo/pixel"
)

func setup(t *testing.T) (*loopfsm.Machine, *loopfsm.ManualClock, *pixel.Recorder) {
	t.Helper()
	clock := loopfsm.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m := loopfsm.New(
		loopfsm.WithClock(clock),
		loopfsm.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	light := &pixel.Recorder{}
	require.NoError(t, Start(m, light, DefaultTiming()))
	return m, clock, light
}

func TestButton(t *testing.T) {
	assert.True(t, Button{Key: 1}.Pressed())
	assert.False(t, Button{Key: 1, Released: true}.Pressed())
}

func TestMovingForwardBlinks(t *testing.T) {
	m, clock, light := setup(t)
	require.Equal(t, "MovingForward", m.CurrentStateName())
	assert.Empty(t, light.Colors(), "nothing is shown before the first blink")

	clock.Advance(499 * time.Millisecond)
	require.NoError(t, m.Update())
	assert.Empty(t, light.Colors())

	for i := 0; i < 4; i++ {
		clock.Advance(500 * time.Millisecond)
		require.NoError(t, m.Update())
	}

	assert.Equal(t, []pixel.Color{pixel.Off, pixel.Green, pixel.Off, pixel.Green}, light.Colors())
	mf, ok := m.CurrentState().(*MovingForward)
	require.True(t, ok)
	assert.False(t, mf.PixelOn())
}

func TestReleaseStartsAvoiding(t *testing.T) {
	m, _, light := setup(t)

	require.NoError(t, m.HandleEvent(Button{Key: 0, Released: true}))

	assert.Equal(t, "Avoiding", m.CurrentStateName())
	assert.Equal(t, pixel.Blue, light.Last())
	assert.Equal(t, uint64(2), m.Transitions())
}

func TestPressIsIgnored(t *testing.T) {
	m, _, light := setup(t)

	require.NoError(t, m.HandleEvent(Button{Key: 0, Released: false}))
	require.NoError(t, m.HandleEvent("not a button"))

	assert.Equal(t, "MovingForward", m.CurrentStateName())
	assert.Empty(t, light.Colors())
	assert.Equal(t, uint64(1), m.Transitions())
}

func TestAvoidingReturnsToMovingForward(t *testing.T) {
	m, clock, light := setup(t)
	require.NoError(t, m.HandleEvent(Button{Released: true}))

	clock.Advance(1999 * time.Millisecond)
	require.NoError(t, m.Update())
	assert.Equal(t, "Avoiding", m.CurrentStateName())

	// further releases while avoiding change nothing
	require.NoError(t, m.HandleEvent(Button{Released: true}))
	assert.Equal(t, uint64(2), m.Transitions())

	clock.Advance(time.Millisecond)
	require.NoError(t, m.Update())
	assert.Equal(t, "MovingForward", m.CurrentStateName())

	// the blink restarts from the new entry
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, m.Update())
	assert.Equal(t, []pixel.Color{pixel.Blue, pixel.Off}, light.Colors())
}
