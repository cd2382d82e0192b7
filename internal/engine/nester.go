// Package engine searches for part placements on rectangular sheets and
// turns the best one into a per-sheet layout.
//
// A Nester validates its input once and runs either a randomized
// single-part search or a genetic multi-part search, chosen by part count.
// Candidate solutions are scored by an Evaluator that checks sheet
// containment and pairwise overlap.
package engine

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// Mode identifies which search produced a result.
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeGenetic Mode = "genetic"
)

// Recorder receives search statistics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveEvaluation(status Status)
	ObserveGeneration(bestFitness float64)
	ObserveRun(mode Mode, eval Evaluation, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(Status)                   {}
func (nopRecorder) ObserveGeneration(float64)                  {}
func (nopRecorder) ObserveRun(Mode, Evaluation, time.Duration) {}

// Result is the outcome of one run.
type Result struct {
	Solution    model.Solution
	Evaluation  Evaluation
	Layout      model.SheetLayout
	Mode        Mode
	Generations int
	Evaluations int
	Duration    time.Duration
}

// Feasible reports whether the best solution passed every check.
func (r Result) Feasible() bool {
	return r.Evaluation.Feasible()
}

// Fitness returns the fitness of the best solution.
func (r Result) Fitness() float64 {
	return r.Evaluation.Fitness()
}

// Option configures a Nester.
type Option func(*Nester)

// WithLogger sets the logger used for progress output.
func WithLogger(l *log.Logger) Option {
	return func(n *Nester) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithRand replaces the random source seeded from the settings.
func WithRand(r *rand.Rand) Option {
	return func(n *Nester) {
		if r != nil {
			n.rng = r
		}
	}
}

// WithMetrics sets the recorder that receives search statistics.
func WithMetrics(r Recorder) Option {
	return func(n *Nester) {
		if r != nil {
			n.rec = r
		}
	}
}

// Nester runs placement searches for a fixed part list and settings.
type Nester struct {
	parts    []model.Part
	settings model.NestSettings
	ev       *Evaluator
	rng      *rand.Rand
	logger   *log.Logger
	rec      Recorder

	mu      sync.Mutex
	running bool
	result  Result
	done    bool
}

// New validates parts and settings and returns a Nester ready to run.
func New(parts []model.Part, settings model.NestSettings, opts ...Option) (*Nester, error) {
	if err := validateInput(parts, settings); err != nil {
		return nil, err
	}
	if settings.ChildPivot == "" {
		settings.ChildPivot = model.PivotParent
	}

	n := &Nester{
		parts:    parts,
		settings: settings,
		ev:       NewEvaluator(parts, settings.SheetWidth, settings.SheetHeight, settings.MaxSheets).WithToolDiameter(settings.ToolDiameter),
		rng:      rand.New(rand.NewSource(settings.Seed)),
		logger:   log.New(io.Discard),
		rec:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func validateInput(parts []model.Part, s model.NestSettings) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: no parts", ErrInvalidInput)
	}
	if !(s.SheetWidth > 0) || !(s.SheetHeight > 0) {
		return fmt.Errorf("%w: sheet must be positive, got %gx%g", ErrInvalidInput, s.SheetWidth, s.SheetHeight)
	}
	if s.MaxSheets < 1 {
		return fmt.Errorf("%w: max sheets must be at least 1", ErrInvalidInput)
	}
	if len(parts) == 1 && s.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1", ErrInvalidInput)
	}
	if len(parts) > 1 && s.PopulationSize < 2 {
		return fmt.Errorf("%w: population size must be at least 2, got %d", ErrInvalidInput, s.PopulationSize)
	}
	if s.Generations < 0 {
		return fmt.Errorf("%w: negative generation count", ErrInvalidInput)
	}
	if s.ChildPivot != "" && s.ChildPivot != model.PivotParent && s.ChildPivot != model.PivotOwn {
		return fmt.Errorf("%w: unknown child pivot %q", ErrInvalidInput, s.ChildPivot)
	}

	seen := make(map[int]bool, len(parts))
	for _, p := range parts {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate part id %d", ErrInvalidInput, p.ID)
		}
		seen[p.ID] = true
		if err := geometry.Validate(p.Outline); err != nil {
			return fmt.Errorf("%w: part %d (%s): %v", ErrInvalidInput, p.ID, p.Label, err)
		}
		for ci, c := range p.Children {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%w: part %d child %d: %v", ErrInvalidInput, p.ID, ci, err)
			}
		}
	}
	return nil
}

// Evaluator returns the evaluator bound to this Nester's parts and sheet.
func (n *Nester) Evaluator() *Evaluator {
	return n.ev
}

// Run performs one complete search and builds the layout of the best
// solution. A result with zero fitness is returned without error; callers
// check Result.Feasible.
func (n *Nester) Run() (Result, error) {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return Result{}, ErrRunInProgress
	}
	n.running = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	start := time.Now()
	res := Result{}

	if len(n.parts) == 1 {
		n.logger.Info("single part search", "part", n.parts[0].Label, "attempts", n.settings.Attempts)
		s := &singleSearch{settings: n.settings, ev: n.ev, part: n.parts[0], rng: n.rng, rec: n.rec}
		res.Mode = ModeSingle
		res.Solution, res.Evaluation, res.Evaluations = s.run()
	} else {
		n.logger.Info("genetic search", "parts", len(n.parts), "population", n.settings.PopulationSize, "generations", n.settings.Generations, "workers", n.settings.Workers)
		g := &geneticSearch{
			settings:  n.settings,
			ev:        n.ev,
			rng:       n.rng,
			logger:    n.logger,
			rec:       n.rec,
			partCount: len(n.parts),
		}
		sol, eval, err := g.run()
		if err != nil {
			return Result{}, err
		}
		res.Mode = ModeGenetic
		res.Solution, res.Evaluation = sol, eval
		res.Generations = n.settings.Generations
		res.Evaluations = g.evaluations
	}

	layout, err := BuildLayout(n.parts, res.Solution, n.settings.SheetWidth, n.settings.SheetHeight, n.settings.ChildPivot)
	if err != nil {
		return Result{}, err
	}
	res.Layout = layout
	res.Duration = time.Since(start)

	n.rec.ObserveRun(res.Mode, res.Evaluation, res.Duration)
	n.logger.Info("search finished",
		"mode", res.Mode,
		"status", res.Evaluation.Status,
		"fitness", fmt.Sprintf("%.4f", res.Fitness()),
		"sheets", res.Evaluation.SheetsUsed,
		"evaluations", res.Evaluations,
		"elapsed", res.Duration.Round(time.Millisecond))

	n.mu.Lock()
	n.result, n.done = res, true
	n.mu.Unlock()
	return res, nil
}

// Result returns the result of the last completed run.
func (n *Nester) Result() (Result, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.result, n.done
}
