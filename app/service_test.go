package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drivesim/config"
	"github.com/kilianp07/drivesim/core/cycle"
	coremetrics "github.com/kilianp07/drivesim/core/metrics"
	coremqtt "github.com/kilianp07/drivesim/core/mqtt"
	"github.com/kilianp07/drivesim/infra/logger"
	"github.com/kilianp07/drivesim/infra/mqtt"
	"github.com/kilianp07/drivesim/infra/runstore"
)

type recordingSink struct {
	mu        sync.Mutex
	runs      []coremetrics.RunReport
	steps     map[string]int
	newton    []coremetrics.NewtonIterationEvent
	traceMiss []coremetrics.TraceMissEvent
}

func newRecordingSink() *recordingSink { return &recordingSink{steps: map[string]int{}} }

func (s *recordingSink) RecordRun(r coremetrics.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, r)
	return nil
}

func (s *recordingSink) RecordSteps(runID string, samples []coremetrics.StepSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[runID] = len(samples)
	return nil
}

func (s *recordingSink) RecordNewtonIterations(ev coremetrics.NewtonIterationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newton = append(s.newton, ev)
	return nil
}

func (s *recordingSink) RecordTraceMiss(ev coremetrics.TraceMissEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traceMiss = append(s.traceMiss, ev)
	return nil
}

func newService(t *testing.T, mutate func(*config.Config)) (*Service, *recordingSink, *mqtt.MockPublisher) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.Path = filepath.Join(dir, "runs.jsonl")
	cfg.Sim.Verbose = false
	if mutate != nil {
		mutate(cfg)
	}
	sink := newRecordingSink()
	pub := mqtt.NewMockPublisher()
	svc, err := New(cfg, WithSink(sink), WithPublisher(pub), WithLogger(logger.NopLogger{}))
	require.NoError(t, err)
	return svc, sink, pub
}

func cruise() RunRequest {
	return RunRequest{
		Vehicle: "midsize_conventional",
		Cycle:   cycle.Def{Kind: "trapezoid", Name: "trap", MPS: 15, AccelS: 15, CruiseS: 30, DecelS: 15},
	}
}

func TestSimulateFansOut(t *testing.T) {
	outDir := t.TempDir()
	svc, sink, pub := newService(t, func(c *config.Config) {
		c.Export = config.ExportConfig{Dir: outDir, Format: "csv", Plot: true}
	})

	res, err := svc.Simulate(context.Background(), cruise())
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, "trap", res.Summary.Cycle)
	assert.Greater(t, res.Summary.MPGGE, 0.0)
	require.Len(t, res.Files, 3)
	for _, f := range res.Files {
		_, err := os.Stat(f)
		assert.NoError(t, err, f)
	}

	sent := pub.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, coremqtt.KindSummary, sent[0].Kind)
	assert.Equal(t, res.RunID, sent[0].RunID)

	recs, err := svc.Store().Query(context.Background(), runstore.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.RunID, recs[0].RunID)
	assert.Equal(t, res.Summary.MPGGE, recs[0].Summary.MPGGE)

	require.NoError(t, svc.Close())
	require.Len(t, sink.runs, 1)
	assert.Equal(t, "midsize_conventional", sink.runs[0].Vehicle)
	assert.Equal(t, res.Summary.Steps, sink.steps[res.RunID])
	require.Len(t, sink.newton, 1)
	assert.Len(t, sink.newton[0].Iters, res.Summary.Steps)
	assert.Empty(t, sink.traceMiss)
}

func TestSimulateTraceMiss(t *testing.T) {
	svc, sink, pub := newService(t, nil)
	res, err := svc.Simulate(context.Background(), RunRequest{
		Vehicle: "midsize_conventional",
		Cycle:   cycle.Def{Kind: "ramp", Name: "launch", FromMPS: 0, ToMPS: 30, DurationS: 3},
	})
	require.NoError(t, err)
	require.True(t, res.Summary.TraceMiss.Flagged)

	sent := pub.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, coremqtt.KindTraceMiss, sent[1].Kind)

	recs, err := svc.Store().Query(context.Background(), runstore.Query{TraceMissOnly: true})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	require.NoError(t, svc.Close())
	require.Len(t, sink.traceMiss, 1)
	assert.Equal(t, "launch", sink.traceMiss[0].Cycle)
	assert.True(t, sink.runs[0].TraceMiss)
}

func TestSimulateFailureIsStored(t *testing.T) {
	svc, sink, pub := newService(t, nil)
	_, err := svc.Simulate(context.Background(), RunRequest{
		Vehicle: "midsize_conventional",
		Cycle:   cycle.Def{Kind: "sine"},
	})
	require.ErrorContains(t, err, "unknown kind")

	recs, qerr := svc.Store().Query(context.Background(), runstore.Query{})
	require.NoError(t, qerr)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Error, "unknown kind")
	assert.Nil(t, recs[0].Summary)
	assert.Empty(t, pub.Sent())

	require.NoError(t, svc.Close())
	assert.Empty(t, sink.runs)
	assert.Empty(t, sink.newton)
}

func TestSimulateParamsOverride(t *testing.T) {
	svc, _, _ := newService(t, nil)
	defer svc.Close()

	req := cruise()
	p := svc.cfg.Sim
	p.NewtonGain = 1.5
	req.Params = &p
	_, err := svc.Simulate(context.Background(), req)
	assert.Error(t, err)
}

func TestSimulateBatch(t *testing.T) {
	svc, sink, _ := newService(t, func(c *config.Config) { c.Workers = 2 })
	bad := cruise()
	bad.Vehicle = filepath.Join(t.TempDir(), "missing.yaml")
	soc := 0.6
	hev := RunRequest{Vehicle: "midsize_hev", Cycle: cruise().Cycle, InitSOC: &soc}

	results, err := svc.SimulateBatch(context.Background(), []RunRequest{cruise(), bad, hev})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request 1")
	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	require.NotNil(t, results[2])
	assert.InDelta(t, 0.6, results[2].Summary.InitialSOC, 1e-12)

	require.NoError(t, svc.Close())
	assert.Len(t, sink.runs, 2)
}

func TestSimulateBatchCanceled(t *testing.T) {
	svc, _, _ := newService(t, nil)
	defer svc.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := svc.SimulateBatch(ctx, []RunRequest{cruise(), cruise()})
	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.Nil(t, r)
	}
}

func TestNewBuildsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Backend = "sqlite"
	cfg.Logging.Path = filepath.Join(t.TempDir(), "runs.db")
	svc, err := New(cfg, WithLogger(logger.NopLogger{}))
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, svc.sink)
	assert.IsType(t, &runstore.SQLiteStore{}, svc.Store())
	assert.Nil(t, svc.pub)
	assert.NoError(t, svc.Serve(context.Background()))
	assert.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}
