package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystem_Validation(t *testing.T) {
	_, err := NewJobSystem(0, 4)
	assert.ErrorIs(t, err, core.ErrNoWorkers)

	_, err = NewJobSystem(2, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystem_RunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(3, 2)
	require.NoError(t, err)

	var sum, failures atomic.Int64
	var wg sync.WaitGroup
	boom := errors.New("boom")

	for i := 1; i <= 20; i++ {
		wg.Add(1)
		ok := js.Submit(JobTask{
			InputParams: i,
			OnStart: func(params interface{}) (interface{}, error) {
				n := params.(int)
				if n%5 == 0 {
					return nil, boom
				}
				return n * 2, nil
			},
			OnComplete: func(result interface{}) {
				sum.Add(int64(result.(int)))
				wg.Done()
			},
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failures.Add(1)
				wg.Done()
			},
		})
		require.True(t, ok)
	}
	wg.Wait()

	// 2 * (210 - 5 - 10 - 15 - 20)
	assert.Equal(t, int64(320), sum.Load())
	assert.Equal(t, int64(4), failures.Load())
	require.NoError(t, js.Shutdown())
}

func TestJobSystem_ShutdownDrainsAndRejects(t *testing.T) {
	js, err := NewJobSystem(1, 8)
	require.NoError(t, err)

	var done atomic.Int32
	for i := 0; i < 5; i++ {
		js.Submit(JobTask{
			OnStart:    func(interface{}) (interface{}, error) { return nil, nil },
			OnComplete: func(interface{}) { done.Add(1) },
		})
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(5), done.Load())

	assert.False(t, js.Submit(JobTask{OnStart: func(interface{}) (interface{}, error) { return nil, nil }}))
	assert.NoError(t, js.Shutdown())
}
