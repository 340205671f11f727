package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drivesim/app"
	"github.com/kilianp07/drivesim/core/cycle"
)

var runFlags struct {
	vehicle string
	def     cycle.Def
	initSOC float64
	batch   string
	asJSON  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a vehicle over a drive cycle",
	Example: `  drivesim run --vehicle midsize_hev --cycle udds.csv
  drivesim run --vehicle compact_bev --kind trapezoid --mps 25 --accel 20 --cruise 120 --decel 20
  drivesim run --batch runs.yaml --json`,
	RunE: runSimulate,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.vehicle, "vehicle", "midsize_conventional", "vehicle preset or vehicle file")
	f.StringVar(&runFlags.def.Path, "cycle", "", "cycle CSV file")
	f.StringVar(&runFlags.def.Kind, "kind", "", "synthetic cycle kind: constant, ramp or trapezoid")
	f.StringVar(&runFlags.def.Name, "name", "", "cycle name")
	f.Float64Var(&runFlags.def.MPS, "mps", 20, "constant or peak speed in m/s")
	f.Float64Var(&runFlags.def.FromMPS, "from", 0, "ramp start speed in m/s")
	f.Float64Var(&runFlags.def.ToMPS, "to", 20, "ramp end speed in m/s")
	f.Float64Var(&runFlags.def.DurationS, "duration", 600, "constant or ramp duration in s")
	f.Float64Var(&runFlags.def.AccelS, "accel", 20, "trapezoid acceleration time in s")
	f.Float64Var(&runFlags.def.CruiseS, "cruise", 300, "trapezoid cruise time in s")
	f.Float64Var(&runFlags.def.DecelS, "decel", 20, "trapezoid deceleration time in s")
	f.Float64Var(&runFlags.def.DtS, "dt", 1, "time step in s")
	f.Float64Var(&runFlags.def.Grade, "grade", 0, "constant road grade")
	f.IntVar(&runFlags.def.RoadType, "road-type", 0, "road type for roadway charging")
	f.IntVar(&runFlags.def.Repeat, "repeat", 1, "repeat the cycle this many times")
	f.Float64Var(&runFlags.initSOC, "init-soc", 0, "initial state of charge; HEVs are balanced when unset")
	f.StringVar(&runFlags.batch, "batch", "", "YAML file with a list of runs")
	f.BoolVar(&runFlags.asJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(runCmd)
}

type batchFile struct {
	Runs []app.RunRequest `yaml:"runs"`
}

func loadBatch(path string) ([]app.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b batchFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("batch %s: %w", path, err)
	}
	if len(b.Runs) == 0 {
		return nil, fmt.Errorf("batch %s: no runs", path)
	}
	return b.Runs, nil
}

func requestFromFlags(cmd *cobra.Command) app.RunRequest {
	def := runFlags.def
	if def.Kind == "" {
		def.Kind = "csv"
	}
	req := app.RunRequest{Vehicle: runFlags.vehicle, Cycle: def}
	if cmd.Flags().Changed("init-soc") {
		soc := runFlags.initSOC
		req.InitSOC = &soc
	}
	return req
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reqs := []app.RunRequest{requestFromFlags(cmd)}
	if runFlags.batch != "" {
		if reqs, err = loadBatch(runFlags.batch); err != nil {
			return err
		}
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			cliLogger().Errorf("service close: %v", err)
		}
	}()
	go func() {
		if err := svc.Serve(ctx); err != nil {
			cliLogger().Errorf("prom server: %v", err)
		}
	}()

	results, runErr := svc.SimulateBatch(ctx, reqs)
	if err := printResults(cmd.OutOrStdout(), results, runFlags.asJSON); err != nil {
		return err
	}
	return runErr
}

func printResults(w io.Writer, results []*app.RunResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tVEHICLE\tCYCLE\tMPGGE\tKWH/MI\tFINAL SOC\tDIST MI\tTRACE MISS\tWALKS")
	for _, r := range results {
		if r == nil {
			continue
		}
		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.3f\t%.3f\t%.2f\t%t\t%d\n",
			r.RunID[:8], s.Vehicle, s.Cycle, s.MPGGE, s.ElectricKWhPerMi, s.FinalSOC, s.DistMi, s.TraceMiss.Flagged, s.Walks)
		for _, f := range r.Files {
			fmt.Fprintf(tw, "\t  wrote %s\n", f)
		}
	}
	return tw.Flush()
}
