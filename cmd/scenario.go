package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drivesim/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario <file|glob>...",
	Short: "Run regression scenarios and report failures",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	var files []string
	for _, a := range args {
		m, err := filepath.Glob(a)
		if err != nil {
			return err
		}
		files = append(files, m...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenario files match %v", args)
	}

	log := cliLogger()
	out := cmd.OutOrStdout()
	failed := 0
	for _, f := range files {
		sc, err := scenarios.Load(f)
		if err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
		res, err := scenarios.Run(sc, log)
		if err != nil {
			return err
		}
		if res.Passed() {
			fmt.Fprintf(out, "PASS %s\n", sc.Name)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s\n", sc.Name)
		for _, r := range res.Failures {
			fmt.Fprintf(out, "     %s\n", r)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(files))
	}
	return nil
}
