package anim

import (
	"testing"
	"time"

	"github.com/1broseidon/palettekit/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	values  map[string]map[Property]float64
	applied []float64
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{values: map[string]map[Property]float64{
		"w1": {PropX: 0, PropY: 0, PropOpacity: 1},
	}}
}

func (f *fakeTarget) Value(id string, p Property) (float64, bool) {
	props, ok := f.values[id]
	if !ok {
		return 0, false
	}
	return props[p], true
}

func (f *fakeTarget) Apply(id string, p Property, v float64) {
	f.values[id][p] = v
	f.applied = append(f.applied, v)
}

type harness struct {
	clock     *clock.Manual
	ticker    *clock.ManualTicker
	target    *fakeTarget
	engine    *Engine
	completed []Property
}

func newHarness() *harness {
	h := &harness{
		clock:  clock.NewManual(time.Unix(1000, 0)),
		ticker: &clock.ManualTicker{},
		target: newFakeTarget(),
	}
	h.engine = NewEngine(h.clock, h.ticker, h.target, func(id string, p Property) {
		h.completed = append(h.completed, p)
	})
	return h
}

func (h *harness) step(d time.Duration) {
	h.clock.Advance(d)
	h.ticker.Tick(h.clock.Now())
}

func TestAnimateCompletesExactlyOnTarget(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropX, To: 100, Duration: 100 * time.Millisecond, Easing: EaseOut}))
	assert.True(t, h.ticker.Running())

	for i := 0; i < 6; i++ {
		h.step(16 * time.Millisecond)
	}
	assert.True(t, h.engine.IsAnimating("w1"))
	assert.Empty(t, h.completed)

	h.step(16 * time.Millisecond)
	assert.Equal(t, 100.0, h.target.values["w1"][PropX])
	assert.Equal(t, []Property{PropX}, h.completed)
	assert.False(t, h.engine.IsAnimating("w1"))
	assert.False(t, h.ticker.Running())
}

func TestReplacementStartsFromInterpolatedValue(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropX, To: 100, Duration: 100 * time.Millisecond, Easing: Linear}))
	h.step(50 * time.Millisecond)
	assert.InDelta(t, 50.0, h.target.values["w1"][PropX], 1e-9)

	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropX, To: 0, Duration: 100 * time.Millisecond, Easing: Linear}))
	assert.Equal(t, 1, h.engine.Active())

	h.step(10 * time.Millisecond)
	assert.InDelta(t, 45.0, h.target.values["w1"][PropX], 1e-9)

	h.step(90 * time.Millisecond)
	assert.Equal(t, 0.0, h.target.values["w1"][PropX])
	assert.Equal(t, []Property{PropX}, h.completed)
}

func TestExplicitFrom(t *testing.T) {
	h := newHarness()
	from := 0.25
	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropOpacity, From: &from, To: 0.75, Duration: 10 * time.Millisecond}))
	h.step(20 * time.Millisecond)
	assert.Equal(t, 0.75, h.target.values["w1"][PropOpacity])
}

func TestZeroDurationCompletesOnNextTick(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropY, To: 42}))
	h.ticker.Tick(h.clock.Now())
	assert.Equal(t, 42.0, h.target.values["w1"][PropY])
	assert.Equal(t, []Property{PropY}, h.completed)
}

func TestStopIsSafeAndStopsTicker(t *testing.T) {
	h := newHarness()
	h.engine.Stop("w1", PropX)
	h.engine.StopAll("missing")

	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropX, To: 10, Duration: time.Second}))
	require.NoError(t, h.engine.Animate("w1", Spec{Property: PropY, To: 10, Duration: time.Second}))
	assert.True(t, h.engine.IsAnimatingProperty("w1", PropY))

	h.engine.Stop("w1", PropX)
	assert.True(t, h.ticker.Running())
	h.engine.StopAll("w1")
	assert.False(t, h.ticker.Running())
	assert.Empty(t, h.completed)
}

func TestAnimateUnknownTarget(t *testing.T) {
	h := newHarness()
	err := h.engine.Animate("ghost", Spec{Property: PropX, To: 1})
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.False(t, h.ticker.Running())
}

func TestEasingEndpoints(t *testing.T) {
	for _, e := range []Easing{Linear, EaseIn, EaseOut, EaseInOut} {
		assert.Equal(t, 0.0, e.Apply(0), e.String())
		assert.Equal(t, 1.0, e.Apply(1), e.String())
		assert.Equal(t, 1.0, e.Apply(3), e.String())
	}
	assert.Equal(t, 0.25, EaseIn.Apply(0.5))
	assert.Equal(t, 0.75, EaseOut.Apply(0.5))
	assert.InDelta(t, 0.5, EaseInOut.Apply(0.5), 1e-9)
}

func TestParseProperty(t *testing.T) {
	p, err := ParseProperty("SCALEX")
	require.NoError(t, err)
	assert.Equal(t, PropScaleX, p)
	_, err = ParseProperty("blur")
	assert.Error(t, err)
}
