package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/NestCut/internal/engine"
	"github.com/piwi3910/NestCut/internal/metrics"
)

func newCompareCmd(g *globalOptions) *cobra.Command {
	var jobPath string

	cmd := &cobra.Command{
		Use:   "compare [part files...]",
		Short: "Compare search settings on the same parts",
		Long: `Compare runs one search with the resolved settings and one per what-if
variant (another seed, a larger population, more generations, more sheets)
and prints fitness, sheets used and waste side by side.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeLog, err := g.loadInput(cmd, jobPath, args)
			if err != nil {
				return err
			}
			defer closeLog()
			logger := loggerFromContext(cmd.Context())

			m := metrics.New()
			scenarios := engine.BuildDefaultScenarios(in.cfg.NestSettings)
			prog := newProgress(logger)
			results, _ := runInBackground(logger, "comparison", heartbeatInterval, func() ([]engine.ComparisonResult, error) {
				return engine.CompareScenarios(in.parts, scenarios, engine.WithLogger(logger), engine.WithMetrics(m)), nil
			})
			prog.done(fmt.Sprintf("Compared %d scenarios", len(results)))

			if g.metricsFile != "" {
				if err := m.WriteTextfile(g.metricsFile); err != nil {
					return err
				}
			}
			return printComparison(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&jobPath, "job", "", "job file (.json or .toml) with settings, parts and sources")
	addSettingsFlags(cmd.Flags())
	return cmd
}

// printComparison writes one table row per scenario. Scenarios that failed
// to run show their error in the last column.
func printComparison(w io.Writer, results []engine.ComparisonResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		feasible := "no"
		if r.Feasible {
			feasible = "yes"
		}
		note := ""
		if r.Err != nil {
			note = r.Err.Error()
		} else if !r.Feasible {
			note = r.Result.Evaluation.Status.String()
		}
		rows = append(rows, []string{
			r.Scenario.Name,
			feasible,
			fmt.Sprintf("%.4f", r.Fitness),
			fmt.Sprintf("%d", r.SheetsUsed),
			fmt.Sprintf("%.1f%%", r.WastePercent),
			r.Duration.Round(time.Millisecond).String(),
			note,
		})
	}

	t := newTable([]string{"Scenario", "Feasible", "Fitness", "Sheets", "Waste", "Time", "Note"}, rows, 1)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
