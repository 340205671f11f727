// Package app wires the simulator to run history, metrics, MQTT publishing
// and trace export.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/drivesim/config"
	"github.com/kilianp07/drivesim/core/cycle"
	"github.com/kilianp07/drivesim/core/events"
	coremetrics "github.com/kilianp07/drivesim/core/metrics"
	"github.com/kilianp07/drivesim/core/model"
	coremqtt "github.com/kilianp07/drivesim/core/mqtt"
	"github.com/kilianp07/drivesim/core/postproc"
	"github.com/kilianp07/drivesim/core/simdrive"
	"github.com/kilianp07/drivesim/core/vehicle"
	"github.com/kilianp07/drivesim/infra/logger"
	"github.com/kilianp07/drivesim/infra/metrics"
	"github.com/kilianp07/drivesim/infra/mqtt"
	"github.com/kilianp07/drivesim/infra/runstore"
	"github.com/kilianp07/drivesim/internal/eventbus"
	"github.com/kilianp07/drivesim/pkg/export"
	"github.com/kilianp07/drivesim/pkg/plot"
)

const busBuffer = 64

// RunRequest names a vehicle and a cycle to simulate.
type RunRequest struct {
	// Vehicle is a preset name or a vehicle file path.
	Vehicle string    `json:"vehicle" yaml:"vehicle"`
	Cycle   cycle.Def `json:"cycle" yaml:"cycle"`
	InitSOC *float64  `json:"init_soc,omitempty" yaml:"init_soc,omitempty"`
	// Params overrides the configured solver settings for this run.
	Params *model.SimParams `json:"sim,omitempty" yaml:"sim,omitempty"`
}

// RunResult is the outcome of one Simulate call.
type RunResult struct {
	RunID   string            `json:"run_id"`
	Summary *postproc.Summary `json:"summary"`
	Elapsed time.Duration     `json:"elapsed_ns"`
	Files   []string          `json:"files,omitempty"`

	SimDrive *simdrive.SimDrive `json:"-"`
}

// Service runs simulations and fans their results out to the configured
// observers.
type Service struct {
	cfg   *config.Config
	sink  coremetrics.MetricsSink
	store runstore.Store
	pub   mqtt.Publisher
	bus   eventbus.EventBus
	log   logger.Logger

	cancel    context.CancelFunc
	collector <-chan struct{}
	closeOnce sync.Once
}

type Option func(*Service)

func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }
func WithStore(s runstore.Store) Option         { return func(svc *Service) { svc.store = s } }
func WithPublisher(p mqtt.Publisher) Option     { return func(svc *Service) { svc.pub = p } }
func WithBus(b eventbus.EventBus) Option        { return func(svc *Service) { svc.bus = b } }
func WithLogger(l logger.Logger) Option         { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration. Dependencies not supplied
// through options are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{cfg: cfg}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil {
		store, err := runstore.NewStore(cfg.Logging.Backend, cfg.Logging.StoreOptions())
		if err != nil {
			return nil, fmt.Errorf("run store: %w", err)
		}
		svc.store = store
	}
	if svc.pub == nil && cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	if svc.bus == nil {
		svc.bus = eventbus.NewTypedWithBuffer[eventbus.Event](busBuffer)
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc.cancel = cancel
	svc.collector = metrics.StartEventCollector(ctx, svc.bus, svc.sink, svc.log)
	return svc, nil
}

// Bus exposes the event bus so callers can observe runs.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// Store exposes the run history.
func (s *Service) Store() runstore.Store { return s.store }

// Serve blocks serving Prometheus metrics until ctx is done. It returns
// immediately when no address is configured.
func (s *Service) Serve(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return nil
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr)
}

// Simulate runs one request to completion. Failures of observers are logged
// and never fail the run.
func (s *Service) Simulate(ctx context.Context, req RunRequest) (*RunResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := s.log
	if zl, ok := log.(*logger.ZerologLogger); ok {
		log = zl.With("run_id", runID)
	}

	sd, err := s.prepare(req, log)
	if err != nil {
		s.fail(ctx, runID, req, start, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.fail(ctx, runID, req, start, err)
		return nil, err
	}

	s.bus.Publish(events.RunStartedEvent{
		RunID:   runID,
		Vehicle: sd.Vehicle().Name,
		Cycle:   sd.BaseCycle().Name,
		Steps:   sd.Len(),
		Time:    start,
	})
	sd.Run(req.InitSOC)
	sum := postproc.Summarize(sd)
	end := time.Now()

	res := &RunResult{RunID: runID, Summary: sum, Elapsed: end.Sub(start), SimDrive: sd}
	log.Infof("run %s: %s on %s, mpgge=%.2f final_soc=%.3f walks=%d in %s",
		runID, sum.Vehicle, sum.Cycle, sum.MPGGE, sum.FinalSOC, sum.Walks, res.Elapsed)

	if sum.TraceMiss.Flagged {
		s.bus.Publish(events.TraceMissEvent{
			RunID:    runID,
			Vehicle:  sum.Vehicle,
			Cycle:    sum.Cycle,
			DistFrac: sum.TraceMiss.DistFrac,
			TimeFrac: sum.TraceMiss.TimeFrac,
			SpeedMPS: sum.TraceMiss.SpeedMPS,
			Reasons:  sum.TraceMiss.Reasons,
			Time:     end,
		})
	}
	s.bus.Publish(events.RunCompletedEvent{
		RunID:       runID,
		Vehicle:     sum.Vehicle,
		Cycle:       sum.Cycle,
		MPGGE:       sum.MPGGE,
		FinalSOC:    sum.FinalSOC,
		NewtonIters: sd.State().NewtonIters,
		Elapsed:     res.Elapsed,
	})

	if err := s.record(runID, sd, sum, start, end); err != nil {
		log.Warnf("metrics for run %s: %v", runID, err)
	}
	if err := s.store.Append(ctx, runstore.Record{
		RunID:     runID,
		Timestamp: start,
		Vehicle:   sum.Vehicle,
		Cycle:     sum.Cycle,
		InitSOC:   req.InitSOC,
		Elapsed:   res.Elapsed,
		Summary:   sum,
	}); err != nil {
		log.Warnf("store run %s: %v", runID, err)
	}
	if err := s.publish(ctx, runID, sum); err != nil {
		log.Warnf("publish run %s: %v", runID, err)
	}
	files, err := s.export(runID, sd)
	if err != nil {
		log.Warnf("export run %s: %v", runID, err)
	}
	res.Files = files
	return res, nil
}

func (s *Service) prepare(req RunRequest, log logger.Logger) (*simdrive.SimDrive, error) {
	p, err := vehicle.Resolve(req.Vehicle)
	if err != nil {
		return nil, err
	}
	veh, err := vehicle.Build(p, model.DefaultProperties())
	if err != nil {
		return nil, err
	}
	cyc, err := req.Cycle.Build()
	if err != nil {
		return nil, err
	}
	params := s.cfg.Sim
	if req.Params != nil {
		params = *req.Params
		params.SetDefaults()
		if err := params.Validate(); err != nil {
			return nil, err
		}
	}
	return simdrive.New(cyc, veh, simdrive.WithParams(params), simdrive.WithLogger(log))
}

// fail records a run that could not be simulated.
func (s *Service) fail(ctx context.Context, runID string, req RunRequest, start time.Time, err error) {
	s.log.Errorf("run %s: %v", runID, err)
	s.bus.Publish(events.RunCompletedEvent{
		RunID:   runID,
		Vehicle: req.Vehicle,
		Cycle:   req.Cycle.Name,
		Elapsed: time.Since(start),
		Err:     err,
	})
	rec := runstore.Record{
		RunID:     runID,
		Timestamp: start,
		Vehicle:   req.Vehicle,
		Cycle:     req.Cycle.Name,
		InitSOC:   req.InitSOC,
		Elapsed:   time.Since(start),
		Error:     err.Error(),
	}
	if aerr := s.store.Append(context.WithoutCancel(ctx), rec); aerr != nil {
		s.log.Warnf("store failed run %s: %v", runID, aerr)
	}
}

func (s *Service) record(runID string, sd *simdrive.SimDrive, sum *postproc.Summary, start, end time.Time) error {
	err := s.sink.RecordRun(coremetrics.RunReport{
		RunID:            runID,
		Vehicle:          sum.Vehicle,
		Cycle:            sum.Cycle,
		Powertrain:       sum.PowertrainType,
		StartTime:        start,
		EndTime:          end,
		Steps:            sum.Steps,
		Walks:            sum.Walks,
		MissedSteps:      sum.MissedSteps,
		MaxNewtonIters:   sum.MaxNewtonIters,
		FuelKJ:           sum.FuelKJ,
		ESSDischgKJ:      sum.ESSDischgKJ,
		RoadwayChgKJ:     sum.RoadwayChgKJ,
		MPGGE:            sum.MPGGE,
		MPGGEElec:        sum.MPGGEElec,
		ElectricKWhPerMi: sum.ElectricKWhPerMi,
		DistMi:           sum.DistMi,
		FinalSOC:         sum.FinalSOC,
		EnergyAuditError: sum.Audit.Error,
		TraceMiss:        sum.TraceMiss.Flagged,
	})
	if r, ok := s.sink.(coremetrics.StepRecorder); ok {
		err = errors.Join(err, r.RecordSteps(runID, stepSamples(sd, start)))
	}
	return err
}

func stepSamples(sd *simdrive.SimDrive, start time.Time) []coremetrics.StepSample {
	st, cyc := sd.State(), sd.Cycle()
	out := make([]coremetrics.StepSample, sd.Len())
	for i := range out {
		out[i] = coremetrics.StepSample{
			TimeS:    cyc.TimeS[i],
			MPH:      st.MPHAch[i],
			SOC:      st.SOC[i],
			FCKW:     st.FCKWOutAch[i],
			ESSKW:    st.ESSKWOutAch[i],
			CycMet:   st.CycMet[i],
			Iters:    st.NewtonIters[i],
			Vehicle:  sd.Vehicle().Name,
			Cycle:    sd.BaseCycle().Name,
			RunStart: start,
		}
	}
	return out
}

func (s *Service) publish(ctx context.Context, runID string, sum *postproc.Summary) error {
	if s.pub == nil {
		return nil
	}
	_, err := s.pub.Publish(ctx, coremqtt.KindSummary, runID, sum.Vehicle, sum)
	if sum.TraceMiss.Flagged {
		_, terr := s.pub.Publish(ctx, coremqtt.KindTraceMiss, runID, sum.Vehicle, sum.TraceMiss)
		err = errors.Join(err, terr)
	}
	return err
}

func (s *Service) export(runID string, sd *simdrive.SimDrive) ([]string, error) {
	ec := s.cfg.Export
	if ec.Dir == "" {
		return nil, nil
	}
	name := fmt.Sprintf("%s_%s_%s", sd.Vehicle().Name, sd.BaseCycle().Name, runID[:8])
	tr, err := export.FromSimDrive(sd, ec.Columns...)
	if err != nil {
		return nil, err
	}
	path, err := export.WriteFile(ec.Dir, name, ec.Format, tr)
	if err != nil {
		return nil, err
	}
	files := []string{path}
	if ec.Plot {
		pngs, err := plot.SaveAll(ec.Dir, name, sd)
		files = append(files, pngs...)
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

// SimulateBatch runs reqs on at most cfg.Workers goroutines. Results keep the
// order of reqs; a failed request leaves a nil result and contributes to the
// joined error.
func (s *Service) SimulateBatch(ctx context.Context, reqs []RunRequest) ([]*RunResult, error) {
	results := make([]*RunResult, len(reqs))
	errs := make([]error, len(reqs))
	workers := max(1, min(s.cfg.Workers, len(reqs)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := s.Simulate(ctx, reqs[i])
				if err != nil {
					errs[i] = fmt.Errorf("request %d (%s): %w", i, reqs[i].Vehicle, err)
					continue
				}
				results[i] = res
			}
		}()
	}
feed:
	for i := range reqs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(reqs); j++ {
				errs[j] = ctx.Err()
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results, errors.Join(errs...)
}

// Close stops the collector and releases the store and publisher.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.bus.Close()
		<-s.collector
		s.cancel()
		if s.pub != nil {
			s.pub.Close()
		}
		err = s.store.Close()
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
	})
	return err
}
