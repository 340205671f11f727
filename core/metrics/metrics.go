package metrics

import "time"

// RunReport is the scalar outcome of one simulated drive.
type RunReport struct {
	RunID      string
	Vehicle    string
	Cycle      string
	Powertrain string
	StartTime  time.Time
	EndTime    time.Time

	Steps          int
	Walks          int
	MissedSteps    int
	MaxNewtonIters int

	FuelKJ           float64
	ESSDischgKJ      float64
	RoadwayChgKJ     float64
	MPGGE            float64
	MPGGEElec        float64
	ElectricKWhPerMi float64
	DistMi           float64
	FinalSOC         float64
	EnergyAuditError float64
	TraceMiss        bool
}

// Duration is the wall time spent simulating.
func (r RunReport) Duration() time.Duration { return r.EndTime.Sub(r.StartTime) }

// MetricsSink records run results for observability purposes.
type MetricsSink interface {
	RecordRun(r RunReport) error
}

// StepSample is one time step of an achieved trace.
type StepSample struct {
	TimeS    float64
	MPH      float64
	SOC      float64
	FCKW     float64
	ESSKW    float64
	CycMet   bool
	Iters    int
	Vehicle  string
	Cycle    string
	RunStart time.Time
}

// StepRecorder is implemented by sinks able to store per-step samples.
type StepRecorder interface {
	RecordSteps(runID string, samples []StepSample) error
}

// NewtonIterationEvent carries the Newton iteration count of every step of a run.
type NewtonIterationEvent struct {
	RunID   string
	Vehicle string
	Iters   []int
}

// NewtonIterationRecorder records Newton sub-solve effort.
type NewtonIterationRecorder interface {
	RecordNewtonIterations(ev NewtonIterationEvent) error
}

// TraceMissEvent is emitted when a run fails its trace tolerances.
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

// TraceMissRecorder records trace-miss events.
type TraceMissRecorder interface {
	RecordTraceMiss(ev TraceMissEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunReport) error { return nil }

func (NopSink) RecordSteps(string, []StepSample) error            { return nil }
func (NopSink) RecordNewtonIterations(NewtonIterationEvent) error { return nil }
func (NopSink) RecordTraceMiss(TraceMissEvent) error              { return nil }
