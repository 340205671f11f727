package metrics

import "errors"

// MultiSink fans out run results to multiple sinks. Optional recorder
// interfaces are forwarded to the sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the report to every sink and joins their errors.
func (m *MultiSink) RecordRun(r RunReport) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSteps forwards per-step samples.
func (m *MultiSink) RecordSteps(runID string, samples []StepSample) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(StepRecorder); ok {
			if err := rec.RecordSteps(runID, samples); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordNewtonIterations forwards iteration counts.
func (m *MultiSink) RecordNewtonIterations(ev NewtonIterationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(NewtonIterationRecorder); ok {
			if err := rec.RecordNewtonIterations(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordTraceMiss forwards trace-miss events.
func (m *MultiSink) RecordTraceMiss(ev TraceMissEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TraceMissRecorder); ok {
			if err := rec.RecordTraceMiss(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
