// Package metrics defines the sink interfaces that receive simulation run
// results. Every sink records a RunReport; sinks may also implement
// StepRecorder, NewtonIterationRecorder or TraceMissRecorder. NewMetricsSink
// builds sinks from configuration through the factory registry and returns a
// MultiSink when several are configured.
package metrics
