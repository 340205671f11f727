package events

import "time"

// RunStartedEvent is published before a run starts simulating.
type RunStartedEvent struct {
	RunID   string
	Vehicle string
	Cycle   string
	Steps   int
	Time    time.Time
}

// RunCompletedEvent is published once a run has been summarized.
type RunCompletedEvent struct {
	RunID       string
	Vehicle     string
	Cycle       string
	MPGGE       float64
	FinalSOC    float64
	NewtonIters []int
	Elapsed     time.Duration
	Err         error
}

// TraceMissEvent is published for runs whose achieved trace falls outside
// tolerance.
type TraceMissEvent struct {
	RunID    string
	Vehicle  string
	Cycle    string
	DistFrac float64
	TimeFrac float64
	SpeedMPS float64
	Reasons  []string
	Time     time.Time
}
