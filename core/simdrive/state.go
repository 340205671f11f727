package simdrive

// State is the per-step record of a walk: one slice per named quantity, all
// of the cycle's length. Index 0 holds the seeded initial conditions.
type State struct {
	// Component limits.
	CurMaxFsKWOut       []float64 `json:"cur_max_fs_kw_out"`
	FCTransLimKW        []float64 `json:"fc_trans_lim_kw"`
	FCFsLimKW           []float64 `json:"fc_fs_lim_kw"`
	FCMaxKWIn           []float64 `json:"fc_max_kw_in"`
	CurMaxFCKWOut       []float64 `json:"cur_max_fc_kw_out"`
	ESSCapLimDischgKW   []float64 `json:"ess_cap_lim_dischg_kw"`
	CurMaxESSKWOut      []float64 `json:"cur_max_ess_kw_out"`
	CurMaxAvailElecKW   []float64 `json:"cur_max_avail_elec_kw"`
	ESSCapLimChgKW      []float64 `json:"ess_cap_lim_chg_kw"`
	CurMaxESSChgKW      []float64 `json:"cur_max_ess_chg_kw"`
	CurMaxElecKW        []float64 `json:"cur_max_elec_kw"`
	MCElecInLimKW       []float64 `json:"mc_elec_in_lim_kw"`
	MCTransiLimKW       []float64 `json:"mc_transi_lim_kw"`
	CurMaxMCKWOut       []float64 `json:"cur_max_mc_kw_out"`
	ESSLimMCRegenPercKW []float64 `json:"ess_lim_mc_regen_perc_kw"`
	ESSLimMCRegenKW     []float64 `json:"ess_lim_mc_regen_kw"`
	CurMaxMechMCKWIn    []float64 `json:"cur_max_mech_mc_kw_in"`
	CurMaxTransKWOut    []float64 `json:"cur_max_trans_kw_out"`
	CurMaxRoadwayChgKW  []float64 `json:"cur_max_roadway_chg_kw"`

	// Road load and drivetrain power.
	CycDragKW           []float64 `json:"cyc_drag_kw"`
	CycAccelKW          []float64 `json:"cyc_accel_kw"`
	CycAscentKW         []float64 `json:"cyc_ascent_kw"`
	CycTracKWReq        []float64 `json:"cyc_trac_kw_req"`
	CurMaxTracKW        []float64 `json:"cur_max_trac_kw"`
	SpareTracKW         []float64 `json:"spare_trac_kw"`
	CycRrKW             []float64 `json:"cyc_rr_kw"`
	CycWheelRadPerSec   []float64 `json:"cyc_whl_rad_per_sec"`
	CycTireInertiaKW    []float64 `json:"cyc_tire_inertia_kw"`
	CycWheelKWReq       []float64 `json:"cyc_whl_kw_req"`
	RegenContrLimKWPerc []float64 `json:"regen_contrl_lim_kw_perc"`
	CycRegenBrakeKW     []float64 `json:"cyc_regen_brake_kw"`
	CycFricBrakeKW      []float64 `json:"cyc_fric_brake_kw"`
	CycTransKWOutReq    []float64 `json:"cyc_trans_kw_out_req"`
	CycMet              []bool    `json:"cyc_met"`
	TransKWOutAch       []float64 `json:"trans_kw_out_ach"`
	TransKWInAch        []float64 `json:"trans_kw_in_ach"`
	CurSOCTarget        []float64 `json:"cur_soc_target"`
	MinMCKW2HelpFC      []float64 `json:"min_mc_kw_2help_fc"`
	MCMechKWOutAch      []float64 `json:"mc_mech_kw_out_ach"`
	MCElecKWInAch       []float64 `json:"mc_elec_kw_in_ach"`
	AuxInKW             []float64 `json:"aux_in_kw"`
	RoadwayChgKWOutAch  []float64 `json:"roadway_chg_kw_out_ach"`
	MinESSKW2HelpFC     []float64 `json:"min_ess_kw_2help_fc"`
	ESSKWOutAch         []float64 `json:"ess_kw_out_ach"`
	FCKWOutAch          []float64 `json:"fc_kw_out_ach"`
	FCKWOutAchPct       []float64 `json:"fc_kw_out_ach_pct"`
	FCKWInAch           []float64 `json:"fc_kw_in_ach"`
	FSKWOutAch          []float64 `json:"fs_kw_out_ach"`
	FSKWhOutAch         []float64 `json:"fs_kwh_out_ach"`
	ESSCurKWh           []float64 `json:"ess_cur_kwh"`
	SOC                 []float64 `json:"soc"`

	// Hybrid energy management.
	RegenBufferSOC            []float64 `json:"regen_buff_soc"`
	ESSRegenBufferDischgKW    []float64 `json:"ess_regen_buff_dischg_kw"`
	MaxESSRegenBufferChgKW    []float64 `json:"max_ess_regen_buff_chg_kw"`
	ESSAccelBufferChgKW       []float64 `json:"ess_accel_buff_chg_kw"`
	AccelBufferSOC            []float64 `json:"accel_buff_soc"`
	MaxESSAccelBufferDischgKW []float64 `json:"max_ess_accell_buff_dischg_kw"`
	ESSAccelRegenDischgKW     []float64 `json:"ess_accel_regen_dischg_kw"`
	MCElecInKWForMaxFCEff     []float64 `json:"mc_elec_in_kw_for_max_fc_eff"`
	ElecKWReq4AE              []float64 `json:"elec_kw_req_4ae"`
	CanPowerAllElec           []bool    `json:"can_pwr_all_elec"`
	DesiredESSKWOutForAE      []float64 `json:"desired_ess_kw_out_for_ae"`
	ESSAEKWOut                []float64 `json:"ess_ae_kw_out"`
	ERAEKWOut                 []float64 `json:"er_ae_kw_out"`
	ESSDesiredKW4FCEff        []float64 `json:"ess_desired_kw_4fc_eff"`
	ESSKWIfFCIsReq            []float64 `json:"ess_kw_if_fc_req"`
	CurMaxMCElecKWIn          []float64 `json:"cur_max_mc_elec_kw_in"`
	FCKWGapFrEff              []float64 `json:"fc_kw_gap_fr_eff"`
	ERKWIfFCIsReq             []float64 `json:"er_kw_if_fc_req"`
	MCElecKWInIfFCIsReq       []float64 `json:"mc_elec_kw_in_if_fc_req"`
	MCKWIfFCIsReq             []float64 `json:"mc_kw_if_fc_req"`

	// Forced fuel converter operation.
	FCForcedOn        []bool    `json:"fc_forced_on"`
	FCForcedState     []int     `json:"fc_forced_state"`
	MCMechKW4ForcedFC []float64 `json:"mc_mech_kw_4forced_fc"`
	FCTimeOn          []float64 `json:"fc_time_on"`
	PrevFCTimeOn      []float64 `json:"prev_fc_time_on"`

	// Achieved motion.
	MPSAch         []float64 `json:"mps_ach"`
	MPHAch         []float64 `json:"mph_ach"`
	DistM          []float64 `json:"dist_m"`
	DistMi         []float64 `json:"dist_mi"`
	HighAccFCOnTag []bool    `json:"high_acc_fc_on_tag"`
	ReachedBuff    []bool    `json:"reached_buff"`
	MaxTracMPS     []float64 `json:"max_trac_mps"`
	NewtonIters    []int     `json:"newton_iters"`
	TraceMissIters []int     `json:"trace_miss_iters"`
}

// newState allocates every series to length n.
func newState(n int) *State {
	s := &State{}
	for _, p := range s.floatSeries() {
		*p.ptr = make([]float64, n)
	}
	for _, p := range s.boolSeries() {
		*p.ptr = make([]bool, n)
	}
	s.FCForcedState = make([]int, n)
	s.NewtonIters = make([]int, n)
	s.TraceMissIters = make([]int, n)
	return s
}

type floatRef struct {
	name string
	ptr  *[]float64
}

type boolRef struct {
	name string
	ptr  *[]bool
}

// Series is a named view of one per-step float quantity.
type Series struct {
	Name   string
	Values []float64
}

// Series returns every float quantity in declaration order. The slices alias
// the state.
func (s *State) Series() []Series {
	refs := s.floatSeries()
	out := make([]Series, len(refs))
	for i, r := range refs {
		out[i] = Series{Name: r.name, Values: *r.ptr}
	}
	return out
}

// PowerSeries returns the float quantities measured in kW, the ones whose
// time integrals are energies.
func (s *State) PowerSeries() []Series {
	var out []Series
	for _, r := range s.Series() {
		if isPower(r.Name) {
			out = append(out, r)
		}
	}
	return out
}

func isPower(name string) bool {
	for i := 0; i+3 <= len(name); i++ {
		if name[i:i+3] == "_kw" && (i+3 == len(name) || name[i+3] == '_') {
			return true
		}
	}
	return false
}

// Bools returns the boolean quantities keyed by name.
func (s *State) Bools() map[string][]bool {
	out := make(map[string][]bool)
	for _, r := range s.boolSeries() {
		out[r.name] = *r.ptr
	}
	return out
}

func (s *State) boolSeries() []boolRef {
	return []boolRef{
		{"cyc_met", &s.CycMet},
		{"can_pwr_all_elec", &s.CanPowerAllElec},
		{"fc_forced_on", &s.FCForcedOn},
		{"high_acc_fc_on_tag", &s.HighAccFCOnTag},
		{"reached_buff", &s.ReachedBuff},
	}
}

func (s *State) floatSeries() []floatRef {
	return []floatRef{
		{"cur_max_fs_kw_out", &s.CurMaxFsKWOut},
		{"fc_trans_lim_kw", &s.FCTransLimKW},
		{"fc_fs_lim_kw", &s.FCFsLimKW},
		{"fc_max_kw_in", &s.FCMaxKWIn},
		{"cur_max_fc_kw_out", &s.CurMaxFCKWOut},
		{"ess_cap_lim_dischg_kw", &s.ESSCapLimDischgKW},
		{"cur_max_ess_kw_out", &s.CurMaxESSKWOut},
		{"cur_max_avail_elec_kw", &s.CurMaxAvailElecKW},
		{"ess_cap_lim_chg_kw", &s.ESSCapLimChgKW},
		{"cur_max_ess_chg_kw", &s.CurMaxESSChgKW},
		{"cur_max_elec_kw", &s.CurMaxElecKW},
		{"mc_elec_in_lim_kw", &s.MCElecInLimKW},
		{"mc_transi_lim_kw", &s.MCTransiLimKW},
		{"cur_max_mc_kw_out", &s.CurMaxMCKWOut},
		{"ess_lim_mc_regen_perc_kw", &s.ESSLimMCRegenPercKW},
		{"ess_lim_mc_regen_kw", &s.ESSLimMCRegenKW},
		{"cur_max_mech_mc_kw_in", &s.CurMaxMechMCKWIn},
		{"cur_max_trans_kw_out", &s.CurMaxTransKWOut},
		{"cur_max_roadway_chg_kw", &s.CurMaxRoadwayChgKW},
		{"cyc_drag_kw", &s.CycDragKW},
		{"cyc_accel_kw", &s.CycAccelKW},
		{"cyc_ascent_kw", &s.CycAscentKW},
		{"cyc_trac_kw_req", &s.CycTracKWReq},
		{"cur_max_trac_kw", &s.CurMaxTracKW},
		{"spare_trac_kw", &s.SpareTracKW},
		{"cyc_rr_kw", &s.CycRrKW},
		{"cyc_whl_rad_per_sec", &s.CycWheelRadPerSec},
		{"cyc_tire_inertia_kw", &s.CycTireInertiaKW},
		{"cyc_whl_kw_req", &s.CycWheelKWReq},
		{"regen_contrl_lim_kw_perc", &s.RegenContrLimKWPerc},
		{"cyc_regen_brake_kw", &s.CycRegenBrakeKW},
		{"cyc_fric_brake_kw", &s.CycFricBrakeKW},
		{"cyc_trans_kw_out_req", &s.CycTransKWOutReq},
		{"trans_kw_out_ach", &s.TransKWOutAch},
		{"trans_kw_in_ach", &s.TransKWInAch},
		{"cur_soc_target", &s.CurSOCTarget},
		{"min_mc_kw_2help_fc", &s.MinMCKW2HelpFC},
		{"mc_mech_kw_out_ach", &s.MCMechKWOutAch},
		{"mc_elec_kw_in_ach", &s.MCElecKWInAch},
		{"aux_in_kw", &s.AuxInKW},
		{"roadway_chg_kw_out_ach", &s.RoadwayChgKWOutAch},
		{"min_ess_kw_2help_fc", &s.MinESSKW2HelpFC},
		{"ess_kw_out_ach", &s.ESSKWOutAch},
		{"fc_kw_out_ach", &s.FCKWOutAch},
		{"fc_kw_out_ach_pct", &s.FCKWOutAchPct},
		{"fc_kw_in_ach", &s.FCKWInAch},
		{"fs_kw_out_ach", &s.FSKWOutAch},
		{"fs_kwh_out_ach", &s.FSKWhOutAch},
		{"ess_cur_kwh", &s.ESSCurKWh},
		{"soc", &s.SOC},
		{"regen_buff_soc", &s.RegenBufferSOC},
		{"ess_regen_buff_dischg_kw", &s.ESSRegenBufferDischgKW},
		{"max_ess_regen_buff_chg_kw", &s.MaxESSRegenBufferChgKW},
		{"ess_accel_buff_chg_kw", &s.ESSAccelBufferChgKW},
		{"accel_buff_soc", &s.AccelBufferSOC},
		{"max_ess_accell_buff_dischg_kw", &s.MaxESSAccelBufferDischgKW},
		{"ess_accel_regen_dischg_kw", &s.ESSAccelRegenDischgKW},
		{"mc_elec_in_kw_for_max_fc_eff", &s.MCElecInKWForMaxFCEff},
		{"elec_kw_req_4ae", &s.ElecKWReq4AE},
		{"desired_ess_kw_out_for_ae", &s.DesiredESSKWOutForAE},
		{"ess_ae_kw_out", &s.ESSAEKWOut},
		{"er_ae_kw_out", &s.ERAEKWOut},
		{"ess_desired_kw_4fc_eff", &s.ESSDesiredKW4FCEff},
		{"ess_kw_if_fc_req", &s.ESSKWIfFCIsReq},
		{"cur_max_mc_elec_kw_in", &s.CurMaxMCElecKWIn},
		{"fc_kw_gap_fr_eff", &s.FCKWGapFrEff},
		{"er_kw_if_fc_req", &s.ERKWIfFCIsReq},
		{"mc_elec_kw_in_if_fc_req", &s.MCElecKWInIfFCIsReq},
		{"mc_kw_if_fc_req", &s.MCKWIfFCIsReq},
		{"mc_mech_kw_4forced_fc", &s.MCMechKW4ForcedFC},
		{"fc_time_on", &s.FCTimeOn},
		{"prev_fc_time_on", &s.PrevFCTimeOn},
		{"mps_ach", &s.MPSAch},
		{"mph_ach", &s.MPHAch},
		{"dist_m", &s.DistM},
		{"dist_mi", &s.DistMi},
		{"max_trac_mps", &s.MaxTracMPS},
	}
}
