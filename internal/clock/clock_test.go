package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresTimersInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired []string
	m.AfterFunc(20*time.Millisecond, func() { fired = append(fired, "b") })
	m.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	stopped := m.AfterFunc(15*time.Millisecond, func() { fired = append(fired, "x") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	m.Advance(5 * time.Millisecond)
	assert.Empty(t, fired)
	assert.Equal(t, 2, m.Pending())

	m.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, time.Unix(0, 0).Add(25*time.Millisecond), m.Now())
	assert.Zero(t, m.Pending())
}

func TestManualTimerScheduledFromCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	m.AfterFunc(10*time.Millisecond, func() {
		count++
		m.AfterFunc(10*time.Millisecond, func() { count++ })
	})
	m.Advance(30 * time.Millisecond)
	assert.Equal(t, 2, count)
}

func TestManualTicker(t *testing.T) {
	var tk ManualTicker
	frames := 0
	tk.Tick(time.Now())
	tk.Start(func(time.Time) { frames++ })
	tk.Start(func(time.Time) { frames += 100 })
	tk.Tick(time.Now())
	assert.True(t, tk.Running())
	tk.Stop()
	tk.Tick(time.Now())
	assert.Equal(t, 1, frames)
	assert.Equal(t, 1, tk.Starts())
}
