package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	mock := clock.NewMock()
	d := New(mock, 500*time.Millisecond)

	var calls int32
	var last atomic.Value
	for _, term := range []string{"j", "ja", "jaz", "jazz"} {
		term := term
		d.Trigger(func() {
			atomic.AddInt32(&calls, 1)
			last.Store(term)
		})
		mock.Add(100 * time.Millisecond)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.True(t, d.Pending())

	mock.Add(400 * time.Millisecond)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "jazz", last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	mock := clock.NewMock()
	d := New(mock, 500*time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	mock.Add(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDebouncer_Defaults(t *testing.T) {
	d := New(nil, 0)
	assert.Equal(t, DefaultDelay, d.Delay())
	assert.False(t, d.Pending())
}

func TestDebouncer_WallClock(t *testing.T) {
	d := New(nil, 10*time.Millisecond)
	done := make(chan struct{})
	d.Trigger(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced function never ran")
	}
}
