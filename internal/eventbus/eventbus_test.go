package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drivesim/core/events"
)

func TestBusFansOutRunEvents(t *testing.T) {
	bus := New()
	a, b := bus.Subscribe(), bus.Subscribe()

	bus.Publish(events.RunStartedEvent{RunID: "r1", Vehicle: "compact_bev"})
	bus.Publish(events.TraceMissEvent{RunID: "r1"})

	for _, ch := range []<-chan Event{a, b} {
		started, ok := (<-ch).(events.RunStartedEvent)
		require.True(t, ok)
		assert.Equal(t, "compact_bev", started.Vehicle)
		assert.IsType(t, events.TraceMissEvent{}, <-ch)
	}
	assert.Zero(t, bus.Dropped())
}

func TestBusCloseEndsConsumers(t *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	counts := make([]int, 3)
	for i := range counts {
		ch := bus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ch {
				counts[i]++
			}
		}()
	}
	bus.Publish(events.RunCompletedEvent{RunID: "r2"})
	bus.Close()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumers still running after Close")
	}
	assert.Equal(t, []int{1, 1, 1}, counts)

	// Closing twice and unsubscribing afterwards are no-ops.
	assert.NotPanics(t, bus.Close)
	assert.NotPanics(t, func() { bus.Unsubscribe(bus.Subscribe()) })
}
