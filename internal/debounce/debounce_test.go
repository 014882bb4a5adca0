package debounce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SingleCallResolves(t *testing.T) {
	d := New(5 * time.Millisecond)

	got, ok, err := Run(context.Background(), d, func(context.Context) (string, error) {
		return "LHR", nil
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "LHR", got)
}

func TestRun_OnlyLatestOfBurstRuns(t *testing.T) {
	d := New(40 * time.Millisecond)
	var calls int32

	type outcome struct {
		value string
		ok    bool
	}
	results := make([]outcome, 3)
	var wg sync.WaitGroup

	for i, keyword := range []string{"L", "LO", "LON"} {
		wg.Add(1)
		go func(i int, keyword string) {
			defer wg.Done()
			v, ok, err := Run(context.Background(), d, func(context.Context) (string, error) {
				atomic.AddInt32(&calls, 1)
				return keyword, nil
			})
			assert.NoError(t, err)
			results[i] = outcome{v, ok}
		}(i, keyword)
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, outcome{"", false}, results[0])
	assert.Equal(t, outcome{"", false}, results[1])
	assert.Equal(t, outcome{"LON", true}, results[2])
}

func TestRun_ResultDroppedWhenSupersededMidFlight(t *testing.T) {
	d := New(time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})

	var first struct {
		ok bool
	}
	done := make(chan struct{})
	go func() {
		_, ok, _ := Run(context.Background(), d, func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		first.ok = ok
		close(done)
	}()

	<-started
	go func() {
		_, _, _ = Run(context.Background(), d, func(context.Context) (int, error) { return 2, nil })
	}()
	time.Sleep(5 * time.Millisecond)
	close(release)
	<-done

	assert.False(t, first.ok)
}

func TestRun_ContextCancelled(t *testing.T) {
	d := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := Run(ctx, d, func(context.Context) (int, error) { return 1, nil })

	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRegistry_PerKey(t *testing.T) {
	r := NewRegistry(DefaultDelay, time.Minute)

	a := r.Get("session-a")
	assert.Same(t, a, r.Get("session-a"))
	assert.NotSame(t, a, r.Get("session-b"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_EvictsIdle(t *testing.T) {
	r := NewRegistry(time.Millisecond, 10*time.Millisecond)
	_, _, _ = Run(context.Background(), r.Get("old"), func(context.Context) (int, error) { return 0, nil })

	time.Sleep(20 * time.Millisecond)
	r.Get("new")

	assert.Equal(t, 1, r.Len())
}
