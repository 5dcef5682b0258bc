package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_FireStopsAtHandler(t *testing.T) {
	eb := NewEventBus(4)
	calls := []string{}

	first := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, "first")
		return true
	}
	second := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, "second")
		return false
	}

	assert.True(t, eb.Register(EVENT_CODE_RESIZED, "a", first))
	assert.True(t, eb.Register(EVENT_CODE_RESIZED, "b", second))
	assert.False(t, eb.Register(EVENT_CODE_RESIZED, "a", first), "duplicate listener must be rejected")

	assert.True(t, eb.Fire(EVENT_CODE_RESIZED, nil, ResizeContext(10, 20)))
	assert.Equal(t, []string{"first"}, calls)

	assert.True(t, eb.Unregister(EVENT_CODE_RESIZED, "a", first))
	assert.False(t, eb.Fire(EVENT_CODE_RESIZED, nil, EventContext{}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEventBus_PostDispatch(t *testing.T) {
	eb := NewEventBus(2)
	var sizes [][2]uint32
	eb.Register(EVENT_CODE_RESIZED, nil, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		sizes = append(sizes, [2]uint32{data.Data.U32[0], data.Data.U32[1]})
		return true
	})

	assert.NoError(t, eb.Post(EVENT_CODE_RESIZED, nil, ResizeContext(640, 480)))
	assert.NoError(t, eb.Post(EVENT_CODE_RESIZED, nil, ResizeContext(800, 600)))
	assert.Error(t, eb.Post(EVENT_CODE_RESIZED, nil, ResizeContext(1, 1)))
	assert.Empty(t, sizes)

	assert.Equal(t, 2, eb.Dispatch())
	assert.Equal(t, [][2]uint32{{640, 480}, {800, 600}}, sizes)
	assert.Equal(t, 0, eb.Dispatch())
}

func TestClock_Measure(t *testing.T) {
	ms := Measure(func() {})
	assert.GreaterOrEqual(t, ms, 0.0)
}

func TestFrameMetrics_Average(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 0.001)
}
