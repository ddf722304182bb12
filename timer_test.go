package loopfsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerExpiry(t *testing.T) {
	var tm Timer
	tm.Duration = time.Second
	assert.False(t, tm.Started())
	assert.False(t, tm.Expired(epoch.Add(time.Hour)), "an unstarted timer never expires")

	tm.Start(epoch)
	assert.True(t, tm.Started())
	assert.False(t, tm.Expired(epoch))
	assert.False(t, tm.Expired(epoch.Add(999*time.Millisecond)))
	assert.True(t, tm.Expired(epoch.Add(time.Second)))
	assert.Equal(t, 1500*time.Millisecond, tm.Elapsed(epoch.Add(1500*time.Millisecond)))
}

func TestTimerRestart(t *testing.T) {
	tm := NewTimer(500*time.Millisecond, epoch)

	assert.False(t, tm.Restart(epoch.Add(400*time.Millisecond)))
	assert.True(t, tm.Restart(epoch.Add(600*time.Millisecond)))
	// restarted at +600ms, so the next period ends at +1100ms
	assert.False(t, tm.Restart(epoch.Add(1000*time.Millisecond)))
	assert.True(t, tm.Restart(epoch.Add(1100*time.Millisecond)))
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(3 * time.Second)
	assert.Equal(t, epoch.Add(3*time.Second), c.Now())

	later := epoch.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestSystemClockMovesForward(t *testing.T) {
	var c SystemClock
	a := c.Now()
	b := c.Now()
	assert.False(t, b.Before(a))
}
