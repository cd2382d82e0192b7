package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/NestCut/internal/engine"
	"github.com/piwi3910/NestCut/internal/export"
	"github.com/piwi3910/NestCut/internal/gcode"
	"github.com/piwi3910/NestCut/internal/metrics"
	"github.com/piwi3910/NestCut/internal/model"
	"github.com/piwi3910/NestCut/internal/project"
)

// rapidRate is the traverse speed assumed for machining time estimates, in
// mm/min.
const rapidRate = 5000.0

type nestOptions struct {
	job     string
	outDir  string
	name    string
	saveJob string

	gcode  bool
	pdf    bool
	labels bool
	report bool
	html   bool
	result bool
}

func newNestCmd(g *globalOptions) *cobra.Command {
	opts := &nestOptions{}

	cmd := &cobra.Command{
		Use:   "nest [part files...]",
		Short: "Nest parts onto sheets and export the layout",
		Long: `Nest imports parts from DXF, CSV or Excel files (and/or a job file), searches
for a placement on the configured sheets and writes the selected exports for
the best layout. Nothing is exported when no feasible layout is found.`,
		Example: `  nestcut nest brackets.dxf --sheet-width 2440 --sheet-height 1220 --pdf
  nestcut nest --job shelf.toml --out build --html --result`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNest(cmd, g, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.job, "job", "", "job file (.json or .toml) with settings, parts and sources")
	f.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	f.StringVar(&opts.name, "name", "", "base name of output files (default: job name or \"nest\")")
	f.StringVar(&opts.saveJob, "save-job", "", "save the resolved settings and parts as a job file")
	f.BoolVar(&opts.gcode, "gcode", true, "write one G-code program per sheet")
	f.BoolVar(&opts.pdf, "pdf", false, "write a PDF drawing of every sheet")
	f.BoolVar(&opts.labels, "labels", false, "write a PDF of QR-coded part labels")
	f.BoolVar(&opts.report, "report", false, "write an Excel placement report")
	f.BoolVar(&opts.html, "html", false, "write a 3D HTML preview")
	f.BoolVar(&opts.result, "result", false, "write a JSON result record")
	addSettingsFlags(f)

	return cmd
}

func runNest(cmd *cobra.Command, g *globalOptions, opts *nestOptions, args []string) error {
	in, closeLog, err := g.loadInput(cmd, opts.job, args)
	if err != nil {
		return err
	}
	defer closeLog()

	logger := loggerFromContext(cmd.Context())
	if opts.name != "" {
		in.name = opts.name
	}

	m := metrics.New()
	n, err := engine.New(in.parts, in.cfg.NestSettings, engine.WithLogger(logger), engine.WithMetrics(m))
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res, err := runInBackground(logger, "search", heartbeatInterval, n.Run)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Nested %d parts", len(in.parts)))

	if g.metricsFile != "" {
		if err := m.WriteTextfile(g.metricsFile); err != nil {
			return err
		}
		logger.Debug("metrics written", "file", g.metricsFile)
	}

	if opts.saveJob != "" {
		job := project.NewJob(in.name, in.cfg.NestSettings, in.parts)
		if in.jobID != "" {
			job.ID = in.jobID
		}
		if err := project.SaveJob(opts.saveJob, job); err != nil {
			return err
		}
		logger.Info("job saved", "file", opts.saveJob)
	}

	base := filepath.Join(opts.outDir, in.name)
	if opts.result {
		path := base + "_result.json"
		if err := project.SaveResult(path, project.NewResultRecord(in.jobID, in.cfg.NestSettings, res)); err != nil {
			return err
		}
		logger.Info("result saved", "file", path)
	}

	if !res.Feasible() {
		logger.Warn("no feasible layout found", "status", res.Evaluation.Status, "detail", res.Evaluation.Detail)
		return nil
	}
	logger.Info("layout",
		"sheets", res.Evaluation.SheetsUsed,
		"parts", res.Layout.PartCount(),
		"utilization", fmt.Sprintf("%.1f%%", 100*res.Fitness()))
	if offcuts := model.DetectAllOffcuts(res.Layout, in.cfg.ToolDiameter); len(offcuts) > 0 {
		logger.Info("offcuts",
			"count", len(offcuts),
			"area_mm2", fmt.Sprintf("%.0f", model.TotalOffcutArea(offcuts)))
	}

	for _, w := range gcode.FormatClampWarnings(gcode.CheckClampClearance(res.Layout, in.cfg.NestSettings)) {
		logger.Warn(w)
	}

	return writeExports(logger, opts, base, in.cfg.NestSettings, res.Layout)
}

// writeExports writes every selected export concurrently. Exporters only
// read the layout.
func writeExports(logger *log.Logger, opts *nestOptions, base string, settings model.NestSettings, layout model.SheetLayout) error {
	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var eg errgroup.Group
	run := func(enabled bool, path string, write func(string) error) {
		if !enabled {
			return
		}
		eg.Go(func() error {
			if err := write(path); err != nil {
				return err
			}
			logger.Info("exported", "file", path)
			return nil
		})
	}

	if opts.gcode {
		eg.Go(func() error { return writeGCode(logger, base, settings, layout) })
	}
	run(opts.pdf, base+".pdf", func(p string) error { return export.ExportPDF(p, layout, settings) })
	run(opts.labels, base+"_labels.pdf", func(p string) error { return export.ExportLabels(p, layout) })
	run(opts.report, base+".xlsx", func(p string) error { return export.ExportReport(p, layout, settings) })
	run(opts.html, base+".html", func(p string) error { return export.ExportHTML(p, layout) })

	return eg.Wait()
}

// writeGCode writes one program per sheet as <base>_sheet<N>.nc and logs
// each program's cut length and estimated machining time.
func writeGCode(logger *log.Logger, base string, settings model.NestSettings, layout model.SheetLayout) error {
	gen := gcode.New(settings)
	for i, program := range gen.GenerateAll(layout) {
		path := fmt.Sprintf("%s_sheet%d.nc", base, layout.Sheets[i].Index+1)
		if err := os.WriteFile(path, []byte(program), 0644); err != nil {
			return fmt.Errorf("failed to write G-code: %w", err)
		}

		sum := gcode.Summarize(program)
		logger.Info("exported",
			"file", path,
			"profile", gen.Profile().Name,
			"moves", sum.Moves,
			"cut_mm", fmt.Sprintf("%.0f", sum.CutLength),
			"minutes", fmt.Sprintf("%.1f", sum.EstimatedMinutes(settings.FeedRate, rapidRate)))
	}
	return nil
}
