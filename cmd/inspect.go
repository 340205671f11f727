package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drivesim/core/model"
	"github.com/kilianp07/drivesim/core/vehicle"
	"github.com/kilianp07/drivesim/infra/runstore"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect vehicles and run history",
}

var inspectVehiclesCmd = &cobra.Command{
	Use:   "vehicles",
	Short: "List vehicle presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, n := range vehicle.PresetNames() {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var inspectVehicleCmd = &cobra.Command{
	Use:   "vehicle <preset|file>",
	Short: "Show a vehicle's inputs and derived figures",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectVehicle,
}

var runsQuery struct {
	vehicle   string
	cycle     string
	since     time.Duration
	traceMiss bool
}

var inspectRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the run history",
	RunE:  inspectRuns,
}

func init() {
	f := inspectRunsCmd.Flags()
	f.StringVar(&runsQuery.vehicle, "vehicle", "", "only runs of this vehicle")
	f.StringVar(&runsQuery.cycle, "cycle", "", "only runs on this cycle")
	f.DurationVar(&runsQuery.since, "since", 0, "only runs newer than this")
	f.BoolVar(&runsQuery.traceMiss, "trace-miss", false, "only runs that missed the trace")
	inspectCmd.AddCommand(inspectVehiclesCmd, inspectVehicleCmd, inspectRunsCmd)
	rootCmd.AddCommand(inspectCmd)
}

func inspectVehicle(cmd *cobra.Command, args []string) error {
	p, err := vehicle.Resolve(args[0])
	if err != nil {
		return err
	}
	v, err := vehicle.Build(p, model.DefaultProperties())
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(map[string]any{
		"params": p,
		"derived": map[string]any{
			"veh_kg":            v.VehKg,
			"powertrain":        v.PowertrainType.String(),
			"max_fc_eff_kw":     v.MaxFCEffKW,
			"fc_peak_eff":       v.FCPeakEff,
			"mc_max_elec_in_kw": v.MCMaxElecInKW,
			"mc_peak_eff":       v.MCPeakEff,
			"max_trac_mps2":     v.MaxTracMPS2,
			"max_regen_kwh":     v.MaxRegenKWh,
			"min_soc":           v.MinSOC,
			"max_soc":           v.MaxSOC,
			"max_ess_kwh":       v.MaxESSKWh,
			"charging_on":       v.ChargingOn,
			"no_elec_sys":       v.NoElecSys,
			"no_elec_aux":       v.NoElecAux,
		},
	})
}

func inspectRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := runstore.NewStore(cfg.Logging.Backend, cfg.Logging.StoreOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	q := runstore.Query{
		Vehicle:       runsQuery.vehicle,
		Cycle:         runsQuery.cycle,
		TraceMissOnly: runsQuery.traceMiss,
	}
	if runsQuery.since > 0 {
		q.Start = time.Now().Add(-runsQuery.since)
	}
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tVEHICLE\tCYCLE\tMPGGE\tFINAL SOC\tTRACE MISS\tERROR")
	for _, r := range recs {
		var mpgge, soc float64
		if r.Summary != nil {
			mpgge, soc = r.Summary.MPGGE, r.Summary.FinalSOC
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.3f\t%t\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.RunID[:min(8, len(r.RunID))], r.Vehicle, r.Cycle, mpgge, soc, r.TraceMissed(), r.Error)
	}
	return tw.Flush()
}
