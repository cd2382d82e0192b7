package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/piwi3910/NestCut/internal/config"
	"github.com/piwi3910/NestCut/internal/importer"
	"github.com/piwi3910/NestCut/internal/model"
	"github.com/piwi3910/NestCut/internal/project"
)

// heartbeatInterval is how often a long-running search reports that it is
// still alive.
var heartbeatInterval = 5 * time.Second

// errNoParts is returned when neither files nor a job supply any part.
var errNoParts = errors.New("no parts to nest: pass part files or --job")

// nestInput is everything a command needs to start a search.
type nestInput struct {
	cfg   config.Config
	parts []model.Part
	jobID string
	name  string
	price float64 // price per sheet of the selected sheet preset
}

// addSettingsFlags registers one flag per commonly tuned setting. Flags only
// take effect when given on the command line, so the defaults shown in the
// help never shadow a job or config file.
func addSettingsFlags(f *pflag.FlagSet) {
	d := model.DefaultSettings()
	f.Float64("sheet-width", d.SheetWidth, "sheet width in mm")
	f.Float64("sheet-height", d.SheetHeight, "sheet height in mm")
	f.Int("max-sheets", d.MaxSheets, "maximum number of sheets")
	f.Int("population-size", d.PopulationSize, "genetic search population size")
	f.Int("generations", d.Generations, "genetic search generations")
	f.Int("attempts", d.Attempts, "single-part search attempts")
	f.Int64("seed", d.Seed, "random seed")
	f.Int("workers", d.Workers, "parallel fitness evaluations per generation")
	f.String("child-pivot", string(d.ChildPivot), "rotation pivot for holes: parent or own")
	f.Float64("tool-diameter", d.ToolDiameter, "cutter diameter in mm, 0 follows the geometry")
	f.Float64("cut-depth", d.CutDepth, "total cut depth in mm")
	f.Float64("pass-depth", d.PassDepth, "depth per pass in mm")
	f.String("gcode-profile", d.GCodeProfile, "G-code controller profile")
	f.String("outline-layer", importer.DefaultOutlineLayer, "DXF layer name fragment that marks part outlines")
	f.String("tool", "", "tool preset from the inventory")
	f.String("stock", "", "sheet preset from the inventory")
}

// loadInput merges the job file, configuration and part files into one
// nestInput. The returned function closes the log file, if any.
func (g *globalOptions) loadInput(cmd *cobra.Command, jobPath string, files []string) (nestInput, func() error, error) {
	in := nestInput{name: "nest"}
	base := model.DefaultSettings()

	if jobPath != "" {
		job, err := project.LoadJob(jobPath)
		if err != nil {
			return nestInput{}, nil, err
		}
		base = job.Settings
		in.parts = job.Parts
		in.jobID = job.ID
		if job.Name != "" {
			in.name = job.Name
		}
		files = append(job.ResolveSources(jobPath), files...)
	}

	price, err := g.applyPresets(cmd, &base)
	if err != nil {
		return nestInput{}, nil, err
	}
	in.price = price

	cfg, closeLog, err := g.loadConfig(cmd, base)
	if err != nil {
		return nestInput{}, nil, err
	}
	logger := loggerFromContext(cmd.Context())

	parts, err := importParts(logger, in.parts, files, cfg.OutlineLayer)
	if err == nil && len(parts) == 0 {
		err = errNoParts
	}
	if err != nil {
		_ = closeLog()
		return nestInput{}, nil, err
	}

	in.cfg = cfg
	in.parts = parts
	return in, closeLog, nil
}

// applyPresets applies the --tool and --stock presets to base and returns
// the sheet price, if any. Presets replace job values; config files,
// environment and flags still refine the result.
func (g *globalOptions) applyPresets(cmd *cobra.Command, base *model.NestSettings) (float64, error) {
	toolName, _ := cmd.Flags().GetString("tool")
	stockName, _ := cmd.Flags().GetString("stock")
	if toolName == "" && stockName == "" {
		return 0, nil
	}

	path, err := g.inventoryFile()
	if err != nil {
		return 0, err
	}
	inv, err := project.LoadInventory(path)
	if err != nil {
		return 0, fmt.Errorf("load inventory: %w", err)
	}
	logger := loggerFromContext(cmd.Context())

	var price float64
	if toolName != "" {
		tool, ok := inv.FindTool(toolName)
		if !ok {
			return 0, fmt.Errorf("unknown tool %q", toolName)
		}
		tool.ApplyToSettings(base)
		logger.Debug("tool preset applied", "tool", tool.Name, "diameter", tool.ToolDiameter)
	}
	if stockName != "" {
		sheet, ok := inv.FindSheet(stockName)
		if !ok {
			return 0, fmt.Errorf("unknown sheet preset %q", stockName)
		}
		sheet.ApplyToSettings(base)
		price = sheet.PricePerSheet
		logger.Debug("sheet preset applied", "sheet", sheet.Name, "width", sheet.Width, "height", sheet.Height)
	}
	return price, nil
}

// importParts appends the parts of every file to parts. Imported parts are
// renumbered after the highest existing ID so IDs stay unique across files.
func importParts(logger *log.Logger, parts []model.Part, files []string, outlineLayer string) ([]model.Part, error) {
	next := 1
	for _, p := range parts {
		if p.ID >= next {
			next = p.ID + 1
		}
	}

	for _, path := range files {
		res := importer.ImportFile(path, outlineLayer)
		for _, w := range res.Warnings {
			logger.Warn(w, "file", path)
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("import %s: %s", path, strings.Join(res.Errors, "; "))
		}
		for _, p := range res.Parts {
			p.ID = next
			next++
			parts = append(parts, p)
		}
		logger.Info("imported parts", "file", path, "parts", len(res.Parts))
	}
	return parts, nil
}

// runInBackground runs fn on its own goroutine and logs a heartbeat every
// interval until fn returns.
func runInBackground[T any](logger *log.Logger, what string, interval time.Duration, fn func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{v, err}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case o := <-done:
			return o.value, o.err
		case <-ticker.C:
			logger.Info(what+" still running", "elapsed", time.Since(start).Round(time.Second))
		}
	}
}
