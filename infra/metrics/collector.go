package metrics

import (
	"context"

	"github.com/kilianp07/drivesim/core/events"
	"github.com/kilianp07/drivesim/core/logger"
	coremetrics "github.com/kilianp07/drivesim/core/metrics"
	"github.com/kilianp07/drivesim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards run events to
// the sink recorders that accept them. It stops when the context is canceled
// or the bus is closed. The returned channel is closed once the collector has
// exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.Nop{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := collect(ev, sink); err != nil {
					log.Warnf("collect %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func collect(ev eventbus.Event, sink coremetrics.MetricsSink) error {
	switch e := ev.(type) {
	case events.RunCompletedEvent:
		if r, ok := sink.(coremetrics.NewtonIterationRecorder); ok && e.Err == nil {
			return r.RecordNewtonIterations(coremetrics.NewtonIterationEvent{
				RunID:   e.RunID,
				Vehicle: e.Vehicle,
				Iters:   e.NewtonIters,
			})
		}
	case events.TraceMissEvent:
		if r, ok := sink.(coremetrics.TraceMissRecorder); ok {
			return r.RecordTraceMiss(coremetrics.TraceMissEvent{
				RunID:    e.RunID,
				Vehicle:  e.Vehicle,
				Cycle:    e.Cycle,
				DistFrac: e.DistFrac,
				TimeFrac: e.TimeFrac,
				SpeedMPS: e.SpeedMPS,
				Reasons:  e.Reasons,
				Time:     e.Time,
			})
		}
	}
	return nil
}
