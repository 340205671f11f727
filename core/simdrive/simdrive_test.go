package simdrive

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drivesim/core/cycle"
	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/vehicle"
)

type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) Debugf(string, ...any)         {}
func (l *captureLogger) Debugw(string, map[string]any) {}
func (l *captureLogger) Infof(string, ...any)          {}
func (l *captureLogger) Errorf(string, ...any)         {}
func (l *captureLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func buildVehicle(t *testing.T, name string, edit ...func(*vehicle.Params)) *model.VehicleSpec {
	t.Helper()
	p, err := vehicle.Preset(name)
	require.NoError(t, err)
	for _, e := range edit {
		e(&p)
	}
	v, err := vehicle.Build(p, model.DefaultProperties())
	require.NoError(t, err)
	return v
}

func trapezoid(t *testing.T) model.Cycle {
	t.Helper()
	c, err := cycle.Trapezoid("trap", 20, 15, 60, 15, 1)
	require.NoError(t, err)
	return c
}

func newSim(t *testing.T, c model.Cycle, v *model.VehicleSpec, opts ...Option) *SimDrive {
	t.Helper()
	sd, err := New(c, v, opts...)
	require.NoError(t, err)
	return sd
}

func assertFinite(t *testing.T, st *State) {
	t.Helper()
	for _, s := range st.Series() {
		for i, x := range s.Values {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				t.Fatalf("%s[%d] is %v", s.Name, i, x)
			}
		}
	}
}

func TestConstantCruiseIsMet(t *testing.T) {
	c, err := cycle.Constant("cruise", 20, 60, 1)
	require.NoError(t, err)
	sd := newSim(t, c, buildVehicle(t, "midsize_conventional"))
	sd.Run(nil)

	st := sd.State()
	for i := range c.MPS {
		require.True(t, st.CycMet[i], "step %d", i)
		require.Equal(t, c.MPS[i], st.MPSAch[i], "step %d", i)
	}
	assert.Equal(t, 1, sd.Walks())
	assertFinite(t, st)
}

func TestUnreachableAccelerationSolvesSpeed(t *testing.T) {
	c, err := cycle.Ramp("launch", 0, 30, 3, 1)
	require.NoError(t, err)
	sd := newSim(t, c, buildVehicle(t, "midsize_conventional"))
	sd.Run(nil)

	st := sd.State()
	assert.False(t, st.CycMet[1])
	assert.Less(t, st.MPSAch[1], c.MPS[1])
	assert.Greater(t, st.MPSAch[1], 0.0)
	assert.GreaterOrEqual(t, st.NewtonIters[1], 1)
	// The re-solved demand sits on the bound.
	assert.InDelta(t, st.CurMaxTransKWOut[1], st.CycTransKWOutReq[1], 1e-3)
	assertFinite(t, st)
}

func TestBEVNeverUsesFuel(t *testing.T) {
	sd := newSim(t, trapezoid(t), buildVehicle(t, "compact_bev"))
	sd.Run(nil)

	st := sd.State()
	for i := range st.FCKWOutAch {
		require.Zero(t, st.FCKWOutAch[i])
		require.Zero(t, st.FCKWInAch[i])
	}
	assert.Equal(t, sd.Vehicle().MaxSOC, st.SOC[0])
	assert.Less(t, st.SOC[len(st.SOC)-1], st.SOC[0])
	assertFinite(t, st)
}

func TestZeroFuelConverterEfficiencyYieldsZeroFuel(t *testing.T) {
	v := buildVehicle(t, "midsize_conventional", func(p *vehicle.Params) {
		p.FCPwrOutPerc = []float64{0, .005, .015, .04, .06, .10, .14, .20, .40, .60, .80, 1.00}
		p.FCEffMap = make([]float64, 12)
	})
	sd := newSim(t, trapezoid(t), v)
	sd.Run(nil)

	st := sd.State()
	var out float64
	for i := range st.FCKWInAch {
		require.Zero(t, st.FCKWInAch[i], "step %d", i)
		out += st.FCKWOutAch[i]
	}
	assert.Greater(t, out, 0.0)
	assertFinite(t, st)
}

func TestZeroFuelConverterEfficiencyOnHybrid(t *testing.T) {
	v := buildVehicle(t, "midsize_hev", func(p *vehicle.Params) {
		p.FCPwrOutPerc = []float64{0, .005, .015, .04, .06, .10, .14, .20, .40, .60, .80, 1.00}
		p.FCEffMap = make([]float64, 12)
	})
	require.Greater(t, v.MaxMotorKW, 0.0)
	c, err := cycle.Constant("highway", 30, 600, 1)
	require.NoError(t, err)
	sd := newSim(t, c, v)
	soc := 0.6
	sd.Run(&soc)

	st := sd.State()
	var out float64
	for i := range st.FCKWInAch {
		require.Zero(t, st.FCKWInAch[i], "step %d", i)
		out += st.FCKWOutAch[i]
	}
	assert.Greater(t, out, 0.0)
	assert.Zero(t, sd.FuelKJ())
	assertFinite(t, st)
}

func TestZeroBatteryKeepsSOCAtZero(t *testing.T) {
	for _, v := range []*model.VehicleSpec{
		buildVehicle(t, "midsize_conventional"),
		buildVehicle(t, "midsize_hev", func(p *vehicle.Params) { p.MaxESSKW = 0 }),
	} {
		sd := newSim(t, trapezoid(t), v)
		sd.Run(nil)
		st := sd.State()
		for i := 1; i < sd.Len(); i++ {
			require.Zero(t, st.SOC[i], "%s step %d", v.Name, i)
			require.Zero(t, st.ESSKWOutAch[i], "%s step %d", v.Name, i)
		}
	}
}

func TestSOCMatchesStoredEnergy(t *testing.T) {
	sd := newSim(t, trapezoid(t), buildVehicle(t, "midsize_hev"))
	sd.Run(nil)

	st, kwh := sd.State(), sd.Vehicle().MaxESSKWh
	for i := 1; i < len(st.SOC); i++ {
		require.Equal(t, st.ESSCurKWh[i]/kwh, st.SOC[i], "step %d", i)
	}
	assertFinite(t, st)
}

func TestRunsAreDeterministic(t *testing.T) {
	v := buildVehicle(t, "midsize_hev")
	c := trapezoid(t)
	a := newSim(t, c, v)
	b := newSim(t, c, v)
	a.Run(nil)
	b.Run(nil)
	assert.Equal(t, a.State(), b.State())
	assert.Equal(t, a.Walks(), b.Walks())
}

func TestConcurrentRunsShareVehicle(t *testing.T) {
	v := buildVehicle(t, "midsize_hev")
	c := trapezoid(t)
	ref := newSim(t, c, v)
	ref.Run(nil)

	const workers = 8
	sims := make([]*SimDrive, workers)
	for k := range sims {
		sims[k] = newSim(t, c, v)
	}
	var wg sync.WaitGroup
	for _, sd := range sims {
		wg.Add(1)
		go func(sd *SimDrive) {
			defer wg.Done()
			sd.Run(nil)
		}(sd)
	}
	wg.Wait()
	for _, sd := range sims {
		assert.Equal(t, ref.State(), sd.State())
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	v := buildVehicle(t, "midsize_conventional")

	_, err := New(model.Cycle{}, v)
	assert.ErrorIs(t, err, model.ErrEmptyCycle)

	bad := model.Cycle{TimeS: []float64{0, 1, 1}, MPS: make([]float64, 3), Grade: make([]float64, 3), RoadType: make([]int, 3)}
	_, err = New(bad, v)
	assert.ErrorIs(t, err, model.ErrNonIncreasingTime)

	_, err = New(trapezoid(t), nil)
	assert.ErrorIs(t, err, model.ErrInvalidVehicle)

	p := model.DefaultSimParams()
	p.NewtonGain = 0
	_, err = New(trapezoid(t), v, WithParams(p))
	assert.ErrorIs(t, err, model.ErrInvalidParams)

	_, err = New(trapezoid(t), v, WithAuxOverride([]float64{1, 2}))
	assert.ErrorIs(t, err, model.ErrLengthMismatch)
}

func TestForcedStatePriority(t *testing.T) {
	base := buildVehicle(t, "midsize_hev")
	c, err := cycle.Constant("c", 5, 3, 1)
	require.NoError(t, err)

	cases := []struct {
		name     string
		forced   bool
		can      bool
		transIn  func(v *model.VehicleSpec) float64
		accelKW  float64
		want     int
		wantMech func(v *model.VehicleSpec) float64
	}{
		{"not forced", false, true, func(v *model.VehicleSpec) float64 { return 10 }, 1, ForcedNone,
			func(*model.VehicleSpec) float64 { return 0 }},
		{"regen", true, true, func(*model.VehicleSpec) float64 { return -4 }, -1, ForcedRegen,
			func(*model.VehicleSpec) float64 { return -4 }},
		{"at peak beats below idle", true, true, func(v *model.VehicleSpec) float64 { return v.MaxFCEffKW }, 1, ForcedAtPeakEff,
			func(*model.VehicleSpec) float64 { return 0 }},
		{"below idle", true, true, func(v *model.VehicleSpec) float64 { return v.IdleFCKW - 1 }, 0, ForcedBelowIdle,
			func(*model.VehicleSpec) float64 { return -1 }},
		{"below peak", true, true, func(v *model.VehicleSpec) float64 { return v.MaxFCEffKW - 0.5 }, -1, ForcedBelowPeakEff,
			func(*model.VehicleSpec) float64 { return 0 }},
		{"above peak", true, true, func(v *model.VehicleSpec) float64 { return v.MaxFCEffKW + 3 }, 1, ForcedAbovePeakEff,
			func(*model.VehicleSpec) float64 { return 3 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := *base
			if tc.want == ForcedAtPeakEff {
				// Idle above the peak point would otherwise select the idle state.
				v.IdleFCKW = v.MaxFCEffKW + 1
			}
			sd := newSim(t, c, &v)
			st := sd.State()
			const i = 1
			if tc.forced {
				st.PrevFCTimeOn[i] = 1
			}
			st.CanPowerAllElec[i] = tc.can
			st.TransKWInAch[i] = tc.transIn(&v)
			st.CycAccelKW[i] = tc.accelKW

			sd.forcedState(i)
			assert.Equal(t, tc.forced, st.FCForcedOn[i])
			assert.Equal(t, tc.want, st.FCForcedState[i])
			assert.InDelta(t, tc.wantMech(&v), st.MCMechKW4ForcedFC[i], 1e-12)
		})
	}
}

func TestRuleTablesEndWithFallback(t *testing.T) {
	tables := map[string][]rule{
		"accel_regen": accelRegenRules,
		"all_elec":    allElecRules,
		"ess_if_fc":   essIfFCReqRules,
		"mc_mech":     mcMechRules,
		"ess_out":     essOutRules,
	}
	for name, table := range tables {
		require.NotEmpty(t, table, name)
		for k, r := range table {
			assert.Equal(t, k+1, r.rank, "%s rule %s", name, r.name)
			assert.NotNil(t, r.then, "%s rule %s", name, r.name)
			if k == len(table)-1 {
				assert.Nil(t, r.when, "%s fallback", name)
			} else {
				assert.NotNil(t, r.when, "%s rule %s", name, r.name)
			}
		}
	}
}

func TestNewtonCubic(t *testing.T) {
	x, iters := newtonCubic(1, 0, 0, -8, 1, 0.9, 100, 1e-9)
	assert.InDelta(t, 2.0, x, 1e-6)
	assert.Greater(t, iters, 1)
	assert.LessOrEqual(t, iters, 100)

	x, iters = newtonCubic(1, 0, 0, -8, 1, 0.9, 1, 1e-9)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 1, iters)

	// A capped run still returns the best iterate seen.
	x, iters = newtonCubic(1, 0, 0, -8, 1, 0.9, 3, 1e-12)
	assert.Equal(t, 3, iters)
	assert.Less(t, math.Abs(x*x*x-8), 7.0)
}

func TestAuxOverride(t *testing.T) {
	c, err := cycle.Constant("c", 10, 5, 1)
	require.NoError(t, err)
	v := buildVehicle(t, "compact_bev")
	override := []float64{0, 0, 2, 0, 0, 0}
	sd := newSim(t, c, v, WithAuxOverride(override))
	sd.Walk(0.9)

	st := sd.State()
	assert.Zero(t, st.AuxInKW[1])
	assert.Equal(t, 2.0, st.AuxInKW[2])
	for i := 3; i < sd.Len(); i++ {
		assert.Equal(t, v.AuxKW, st.AuxInKW[i], "step %d", i)
	}

	require.NoError(t, sd.SetAuxOverride(nil))
	sd.Walk(0.9)
	for i := 1; i < sd.Len(); i++ {
		assert.Equal(t, v.AuxKW, sd.State().AuxInKW[i])
	}

	assert.ErrorIs(t, sd.SetAuxOverride([]float64{1}), model.ErrLengthMismatch)
	assert.ErrorIs(t, sd.SetAuxOverride([]float64{0, 0, math.NaN(), 0, 0, 0}), model.ErrInvalidParams)
}

func TestTimeDilationStretchesMissedSteps(t *testing.T) {
	ramp, err := cycle.Ramp("launch", 0, 30, 3, 1)
	require.NoError(t, err)
	cruise, err := cycle.Constant("cruise", 30, 10, 1)
	require.NoError(t, err)
	c, err := cycle.Concat("launch_cruise", ramp, cruise)
	require.NoError(t, err)
	v := buildVehicle(t, "midsize_conventional")
	n := c.Len()

	off := newSim(t, c, v)
	off.Run(nil)
	assert.Equal(t, c.TimeS, off.Cycle().TimeS)

	p := model.DefaultSimParams()
	p.MissedTraceCorrection = true
	on := newSim(t, c, v, WithParams(p))
	on.Run(nil)

	st := on.State()
	assert.GreaterOrEqual(t, st.TraceMissIters[1], 1)
	assert.LessOrEqual(t, st.TraceMissIters[1], p.MaxTraceMissIters)
	assert.Greater(t, on.Cycle().TimeS[n-1], c.TimeS[n-1])
	assert.Equal(t, c.TimeS, on.BaseCycle().TimeS)
	require.NoError(t, on.Cycle().Validate())
	assertFinite(t, st)
}

func TestRunInitialSOCPolicy(t *testing.T) {
	c := trapezoid(t)

	conv := newSim(t, c, buildVehicle(t, "midsize_conventional"))
	conv.Run(nil)
	assert.Zero(t, conv.State().SOC[0])

	log := &captureLogger{}
	bev := newSim(t, c, buildVehicle(t, "compact_bev"), WithLogger(log))
	bad := 1.5
	bev.Run(&bad)
	assert.Equal(t, bev.Vehicle().MaxSOC, bev.State().SOC[0])
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "outside [0, 1]")

	soc := 0.6
	hev := newSim(t, c, buildVehicle(t, "midsize_hev"))
	hev.Run(&soc)
	assert.Equal(t, 1, hev.Walks())
	assert.Equal(t, 0.6, hev.State().SOC[0])
}

func TestRunBalancesHEVCharge(t *testing.T) {
	sd := newSim(t, trapezoid(t), buildVehicle(t, "midsize_hev"))
	sd.Run(nil)

	p := sd.Params()
	assert.GreaterOrEqual(t, sd.Walks(), 2)
	assert.LessOrEqual(t, sd.Walks(), p.SimCountMax+1)
	soc0 := sd.State().SOC[0]
	assert.GreaterOrEqual(t, soc0, 0.0)
	assert.LessOrEqual(t, soc0, 1.0)
}

func TestWalkWarnsOnLargeSteps(t *testing.T) {
	c, err := cycle.Constant("coarse", 10, 60, 10)
	require.NoError(t, err)
	log := &captureLogger{}
	sd := newSim(t, c, buildVehicle(t, "compact_bev"), WithLogger(log))
	sd.Walk(0.9)
	require.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "longer than 5s")

	p := model.DefaultSimParams()
	p.Verbose = false
	quiet := &captureLogger{}
	sd = newSim(t, c, buildVehicle(t, "compact_bev"), WithParams(p), WithLogger(quiet))
	sd.Walk(0.9)
	assert.Empty(t, quiet.warns)
}

func TestPowerSeriesSelection(t *testing.T) {
	st := newState(2)
	names := map[string]bool{}
	for _, s := range st.PowerSeries() {
		names[s.Name] = true
	}
	assert.True(t, names["fc_kw_out_ach"])
	assert.True(t, names["cyc_drag_kw"])
	assert.True(t, names["ess_kw_if_fc_req"])
	assert.False(t, names["soc"])
	assert.False(t, names["fs_kwh_out_ach"])
	assert.False(t, names["mps_ach"])
}
