package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drivesim/core/metrics/eco"
	"github.com/kilianp07/drivesim/infra/kpi"
	"github.com/kilianp07/drivesim/infra/runstore"
	"github.com/kilianp07/drivesim/jobs/ecokpi"
)

var kpiFlags struct {
	db     string
	since  time.Duration
	days   int
	factor float64
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Daily per-vehicle energy KPIs",
}

var kpiBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild daily energy records from the run history",
	RunE:  kpiBackfill,
}

var kpiShowCmd = &cobra.Command{
	Use:   "show <vehicle>",
	Short: "Print daily energy records of a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  kpiShow,
}

func init() {
	kpiCmd.PersistentFlags().StringVar(&kpiFlags.db, "db", "", "energy KPI database; defaults to the eco sink's sqlite_path")
	kpiBackfillCmd.Flags().DurationVar(&kpiFlags.since, "since", 0, "only runs newer than this")
	kpiShowCmd.Flags().IntVar(&kpiFlags.days, "days", 7, "number of days to show")
	kpiShowCmd.Flags().Float64Var(&kpiFlags.factor, "emission-factor", 0, "grams of CO2 per fuel kWh; defaults to the eco sink's")
	kpiCmd.AddCommand(kpiBackfillCmd, kpiShowCmd)
	rootCmd.AddCommand(kpiCmd)
}

func openKPIStore() (eco.Store, float64, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, 0, err
	}
	if kpiFlags.db != "" {
		s, err := kpi.NewSQLiteStore(kpiFlags.db)
		return s, 0, err
	}
	s, factor, err := sharedEcoStore(cfg)
	if err != nil {
		return nil, 0, err
	}
	if s == nil {
		return nil, 0, fmt.Errorf("no energy database: pass --db or configure an eco sink with sqlite_path")
	}
	return s, factor, nil
}

func closeStore(s any) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

func kpiBackfill(cmd *cobra.Command, args []string) error {
	store, _, err := openKPIStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runs, err := runstore.NewStore(cfg.Logging.Backend, cfg.Logging.StoreOptions())
	if err != nil {
		return err
	}
	defer runs.Close()

	var q runstore.Query
	if kpiFlags.since > 0 {
		q.Start = time.Now().Add(-kpiFlags.since)
	}
	history, err := runs.Query(context.Background(), q)
	if err != nil {
		return err
	}
	n, err := ecokpi.Backfill(store, history)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %d of %d runs\n", n, len(history))
	return nil
}

func kpiShow(cmd *cobra.Command, args []string) error {
	store, factor, err := openKPIStore()
	if err != nil {
		return err
	}
	defer closeStore(store)
	if kpiFlags.factor > 0 {
		factor = kpiFlags.factor
	}

	end := time.Now()
	start := end.AddDate(0, 0, -max(kpiFlags.days-1, 0))
	recs, err := store.Query(args[0], start, end)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tRUNS\tFUEL KWH\tELEC KWH\tDIST MI\tKWH/MI\tELEC SHARE\tCO2 G")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.2f\t%.3f\t%.2f\t%.0f\n",
			r.Date.Format("2006-01-02"), r.Runs, r.FuelKWh, r.ElectricKWh, r.DistMi, r.KWhPerMi(), r.ElectricShare(), r.CO2Emitted(factor))
	}
	return tw.Flush()
}
