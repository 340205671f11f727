package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kilianp07/drivesim/api/runs"
	"github.com/kilianp07/drivesim/api/vehicles"
	"github.com/kilianp07/drivesim/app"
	"github.com/kilianp07/drivesim/config"
	"github.com/kilianp07/drivesim/core/metrics/eco"
	"github.com/kilianp07/drivesim/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run API and Prometheus metrics",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
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

	ecoStore, factor, err := sharedEcoStore(cfg)
	if err != nil {
		return fmt.Errorf("eco store: %w", err)
	}
	if c, ok := ecoStore.(io.Closer); ok {
		defer c.Close()
	}
	mux := metrics.NewMux(prometheus.DefaultGatherer)
	mux.Handle("/api/runs", runs.NewHandler(svc.Store(), svc, cfg.API.Token))
	vh := vehicles.NewRouter(ecoStore, factor)
	mux.Handle("/api/vehicles", vh)
	mux.Handle("/api/vehicles/", vh)
	return metrics.Serve(ctx, cfg.API.Addr, mux)
}

// sharedEcoStore opens the eco sink's SQLite database for reading so the KPI
// routes see what the sink writes. In-memory eco stores are private to the
// sink and leave the routes unmounted.
func sharedEcoStore(cfg *config.Config) (eco.Store, float64, error) {
	for _, s := range cfg.Metrics.Sinks {
		if s.Type != "eco" || s.Conf["sqlite_path"] == nil {
			continue
		}
		return metrics.OpenEcoStore(s.Conf)
	}
	return nil, 0, nil
}
