package scenarios

import (
	"fmt"
	"math"

	"github.com/kilianp07/drivesim/core/logger"
	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/postproc"
	"github.com/kilianp07/drivesim/core/simdrive"
	"github.com/kilianp07/drivesim/core/vehicle"
)

// Result is the outcome of one scenario. Failures lists every bound the run
// violated; an empty list means the scenario passed.
type Result struct {
	Scenario string
	Summary  *postproc.Summary
	Failures []string
}

func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run simulates sc and checks the summary against its expectations. Errors
// are reserved for scenarios that cannot be simulated at all.
func Run(sc *Scenario, log logger.Logger) (*Result, error) {
	p, err := vehicle.Resolve(sc.Vehicle)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	veh, err := vehicle.Build(p, model.DefaultProperties())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	cyc, err := sc.Cycle.Build()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	params, err := sc.params()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	sd, err := simdrive.New(cyc, veh, simdrive.WithParams(params), simdrive.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	sd.Run(sc.InitSOC)

	s := postproc.Summarize(sd)
	res := &Result{Scenario: sc.Name, Summary: s, Failures: check(sc.Expected, s)}
	if res.Passed() {
		log.Infof("scenario %s passed: mpgge=%.2f final_soc=%.3f", sc.Name, s.MPGGE, s.FinalSOC)
	} else {
		log.Warnf("scenario %s failed: %v", sc.Name, res.Failures)
	}
	return res, nil
}

func check(e Expected, s *postproc.Summary) []string {
	var out []string
	for _, err := range []error{
		e.MPGGE.check("mpgge", s.MPGGE),
		e.ElectricKWhPerMi.check("electric_kwh_per_mi", s.ElectricKWhPerMi),
		e.FinalSOC.check("final_soc", s.FinalSOC),
		e.DistMi.check("dist_mi", s.DistMi),
		e.ESSToFuel.check("ess_to_fuel", s.ESS2FuelKWh),
	} {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	if e.TraceMiss != nil && *e.TraceMiss != s.TraceMiss.Flagged {
		out = append(out, fmt.Sprintf("trace_miss %t, want %t", s.TraceMiss.Flagged, *e.TraceMiss))
	}
	if e.MaxAuditError != nil && math.Abs(s.Audit.Error) > *e.MaxAuditError {
		out = append(out, fmt.Sprintf("energy audit error %.4g above %.4g", s.Audit.Error, *e.MaxAuditError))
	}
	if e.MaxMissedSteps != nil && s.MissedSteps > *e.MaxMissedSteps {
		out = append(out, fmt.Sprintf("missed_steps %d above %d", s.MissedSteps, *e.MaxMissedSteps))
	}
	if s.Walks < e.MinWalks {
		out = append(out, fmt.Sprintf("walks %d below %d", s.Walks, e.MinWalks))
	}
	return out
}
