package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drivesim/core/events"
	coremetrics "github.com/kilianp07/drivesim/core/metrics"
	"github.com/kilianp07/drivesim/internal/eventbus"
)

type collectSink struct {
	mu     sync.Mutex
	iters  []coremetrics.NewtonIterationEvent
	misses []coremetrics.TraceMissEvent
}

func (s *collectSink) RecordRun(coremetrics.RunReport) error { return nil }

func (s *collectSink) RecordNewtonIterations(ev coremetrics.NewtonIterationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iters = append(s.iters, ev)
	return nil
}

func (s *collectSink) RecordTraceMiss(ev coremetrics.TraceMissEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses = append(s.misses, ev)
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &collectSink{}
	done := StartEventCollector(context.Background(), bus, sink, nil)

	bus.Publish(events.RunStartedEvent{RunID: "r1"})
	bus.Publish(events.RunCompletedEvent{RunID: "r1", Vehicle: "v", NewtonIters: []int{0, 2}})
	bus.Publish(events.TraceMissEvent{RunID: "r1", Vehicle: "v", Cycle: "c", Reasons: []string{"speed"}})
	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop after bus close")
	}
	require.Len(t, sink.iters, 1)
	assert.Equal(t, []int{0, 2}, sink.iters[0].Iters)
	require.Len(t, sink.misses, 1)
	assert.Equal(t, "c", sink.misses[0].Cycle)
	assert.Equal(t, []string{"speed"}, sink.misses[0].Reasons)
}

func TestStartEventCollector_StopsOnCancel(t *testing.T) {
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, coremetrics.NopSink{}, nil)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop after cancel")
	}
}

func TestStartEventCollector_NilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{}, nil)
	_, open := <-done
	assert.False(t, open)
}
