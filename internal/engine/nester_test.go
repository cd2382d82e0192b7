package engine

import (
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

func testSettings(w, h float64, maxSheets int) model.NestSettings {
	s := model.DefaultSettings()
	s.SheetWidth = w
	s.SheetHeight = h
	s.MaxSheets = maxSheets
	s.PopulationSize = 20
	s.Generations = 5
	return s
}

// countingRecorder tallies the statistics reported by a run.
type countingRecorder struct {
	mu          sync.Mutex
	evaluations map[Status]int
	generations int
	runs        int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{evaluations: make(map[Status]int)}
}

func (r *countingRecorder) ObserveEvaluation(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluations[s]++
}

func (r *countingRecorder) ObserveGeneration(float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations++
}

func (r *countingRecorder) ObserveRun(Mode, Evaluation, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}

func (r *countingRecorder) total() int {
	n := 0
	for _, c := range r.evaluations {
		n += c
	}
	return n
}

func TestSingleSquareOnLargeSheet(t *testing.T) {
	parts := squareParts(100)
	n, err := New(parts, testSettings(1200, 1200, 1))
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err)

	assert.Equal(t, ModeSingle, res.Mode)
	require.Len(t, res.Solution, 1)
	assert.Equal(t, 0, res.Solution[0].SheetIndex)
	assert.True(t, res.Feasible())
	assert.InDelta(t, 10000.0/1440000.0, res.Fitness(), 1e-12)

	require.Len(t, res.Layout.Sheets, 1)
	assert.True(t, geometry.ContainedIn(res.Layout.Sheets[0].Parts[0].Outline, 1200, 1200))
}

func TestSingleEarlyStop(t *testing.T) {
	parts := squareParts(1000)
	s := testSettings(1200, 1200, 1)
	rec := newCountingRecorder()

	n, err := New(parts, s, WithMetrics(rec))
	require.NoError(t, err)
	res, err := n.Run()
	require.NoError(t, err)

	// 1000² / 1200² is above the early stop threshold, so the search ends
	// once the first fitting sample is found.
	assert.True(t, res.Feasible())
	assert.Less(t, res.Evaluations, s.FixedAngleAttempts*len(fixedAngles))
	assert.Equal(t, res.Evaluations, rec.total())
	assert.Equal(t, 1, rec.runs)
}

func TestOversizedPartFallsBackToCenter(t *testing.T) {
	parts := squareParts(1500)
	s := testSettings(1200, 1200, 1)
	n, err := New(parts, s)
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err, "exhausting the search is not an error")

	assert.False(t, res.Feasible())
	assert.Zero(t, res.Fitness())
	assert.Equal(t, OutOfBounds, res.Evaluation.Status)
	require.Len(t, res.Solution, 1)

	p := res.Solution[0]
	assert.Equal(t, 0, p.SheetIndex)
	assert.Zero(t, p.Angle)
	// Centroid (750, 750) lands on the sheet center.
	assert.InDelta(t, -150, p.X, 1e-9)
	assert.InDelta(t, -150, p.Y, 1e-9)
	assert.Equal(t, 4*s.FixedAngleAttempts+(s.Attempts-s.FixedAngleAttempts)+1, res.Evaluations)
}

func TestTwoSquaresGeneticSearch(t *testing.T) {
	parts := squareParts(50, 50)
	n, err := New(parts, testSettings(1000, 500, 2))
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err)

	assert.Equal(t, ModeGenetic, res.Mode)
	require.True(t, res.Feasible(), res.Evaluation.Detail)
	require.Len(t, res.Solution, 2)

	used := res.Solution.SheetsUsed()
	assert.Equal(t, used, res.Evaluation.SheetsUsed)
	assert.InDelta(t, 2*2500.0/(float64(used)*500000.0), res.Fitness(), 1e-12)
	assertLayoutFeasible(t, res.Layout)
}

func TestEmptyPartListRejected(t *testing.T) {
	_, err := New(nil, testSettings(1000, 500, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInvalidSettingsRejected(t *testing.T) {
	parts := squareParts(10, 10)

	tests := []struct {
		name   string
		modify func(*model.NestSettings)
	}{
		{"zero width", func(s *model.NestSettings) { s.SheetWidth = 0 }},
		{"negative height", func(s *model.NestSettings) { s.SheetHeight = -1 }},
		{"no sheets", func(s *model.NestSettings) { s.MaxSheets = 0 }},
		{"population of one", func(s *model.NestSettings) { s.PopulationSize = 1 }},
		{"negative generations", func(s *model.NestSettings) { s.Generations = -1 }},
		{"unknown pivot", func(s *model.NestSettings) { s.ChildPivot = "sideways" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(1000, 500, 2)
			tt.modify(&s)
			_, err := New(parts, s)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestInvalidPartsRejected(t *testing.T) {
	s := testSettings(1000, 500, 2)

	dup := squareParts(10, 10)
	dup[1].ID = dup[0].ID
	_, err := New(dup, s)
	assert.ErrorIs(t, err, ErrInvalidInput)

	degenerate := []model.Part{model.NewPart(1, "line", model.Outline{{X: 0, Y: 0}, {X: 1, Y: 1}})}
	_, err = New(degenerate, s)
	assert.ErrorIs(t, err, ErrInvalidInput)

	badChild := squareParts(10)
	badChild[0].Children = []model.ChildShape{model.NewCircle(model.Point2D{X: 5, Y: 5}, -1)}
	_, err = New(badChild, s)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	parts := squareParts(80, 60, 120, 40)
	s := testSettings(600, 400, 3)

	run := func(workers int) Result {
		s.Workers = workers
		n, err := New(parts, s)
		require.NoError(t, err)
		res, err := n.Run()
		require.NoError(t, err)
		return res
	}

	first := run(1)
	second := run(1)
	parallel := run(4)

	assert.Equal(t, first.Solution, second.Solution)
	assert.Equal(t, first.Evaluation, second.Evaluation)
	assert.Equal(t, first.Solution, parallel.Solution)
	assert.Equal(t, first.Evaluation, parallel.Evaluation)
}

func TestWithRandOverridesSeed(t *testing.T) {
	parts := squareParts(80, 60)
	s := testSettings(600, 400, 2)

	n1, err := New(parts, s, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	n2, err := New(parts, s, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	r1, err := n1.Run()
	require.NoError(t, err)
	r2, err := n2.Run()
	require.NoError(t, err)
	assert.Equal(t, r1.Solution, r2.Solution)
}

func TestGeneticRecordsStatistics(t *testing.T) {
	parts := squareParts(50, 50, 50)
	s := testSettings(1000, 500, 2)
	rec := newCountingRecorder()

	n, err := New(parts, s, WithMetrics(rec))
	require.NoError(t, err)
	res, err := n.Run()
	require.NoError(t, err)

	assert.Equal(t, s.Generations, rec.generations)
	assert.Equal(t, (s.Generations+1)*s.PopulationSize, rec.total())
	assert.Equal(t, rec.total(), res.Evaluations)
	assert.Equal(t, s.Generations, res.Generations)
}

func TestResultAvailableAfterRun(t *testing.T) {
	n, err := New(squareParts(50, 50), testSettings(1000, 500, 2))
	require.NoError(t, err)

	_, ok := n.Result()
	assert.False(t, ok)

	res, err := n.Run()
	require.NoError(t, err)

	stored, ok := n.Result()
	assert.True(t, ok)
	assert.Equal(t, res.Solution, stored.Solution)
}

func TestConcurrentRunRejected(t *testing.T) {
	n, err := New(squareParts(50, 50), testSettings(1000, 500, 2))
	require.NoError(t, err)

	n.mu.Lock()
	n.running = true
	n.mu.Unlock()

	_, err = n.Run()
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestGeneticEmptyPopulationFaults(t *testing.T) {
	s := testSettings(1000, 500, 2)
	s.PopulationSize = 0
	g := &geneticSearch{
		settings:  s,
		rng:       rand.New(rand.NewSource(1)),
		logger:    log.New(io.Discard),
		rec:       nopRecorder{},
		partCount: 2,
	}

	sol, _, err := g.run()
	assert.True(t, errors.Is(err, ErrSearchFault), "got %v", err)
	assert.Nil(t, sol)
	assert.Zero(t, g.evaluations)
}

func TestGeneticMissingScoresFault(t *testing.T) {
	parts := squareParts(50, 50)
	s := testSettings(1000, 500, 2)
	g := &geneticSearch{
		settings:  s,
		ev:        NewEvaluator(parts, s.SheetWidth, s.SheetHeight, s.MaxSheets),
		rng:       rand.New(rand.NewSource(1)),
		logger:    log.New(io.Discard),
		rec:       nopRecorder{},
		partCount: len(parts),
	}
	p := newPopulation(4, len(parts))
	g.initPopulation(p)
	p.scores = p.scores[:1]

	assert.ErrorIs(t, g.evaluate(p), ErrSearchFault)
	assert.Zero(t, g.evaluations)
}

func TestRunSearchFaultStoresNoResult(t *testing.T) {
	n, err := New(squareParts(50, 50), testSettings(1000, 500, 2))
	require.NoError(t, err)
	n.settings.PopulationSize = 0

	res, err := n.Run()
	assert.ErrorIs(t, err, ErrSearchFault)
	assert.Nil(t, res.Solution)
	assert.True(t, res.Layout.Empty())

	_, ok := n.Result()
	assert.False(t, ok)

	// The failed run must release the Nester.
	_, err = n.Run()
	assert.ErrorIs(t, err, ErrSearchFault)
}

func TestGeneticKeepsToolClearance(t *testing.T) {
	s := testSettings(1000, 500, 2)
	s.ToolDiameter = 6
	n, err := New(squareParts(50, 50, 50), s)
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible(), res.Evaluation.Detail)
	assertToolpathsClear(t, res.Layout, s.ToolDiameter)
}

func TestSingleKeepsToolClearance(t *testing.T) {
	s := testSettings(110, 110, 1)
	s.ToolDiameter = 10
	n, err := New(squareParts(100), s)
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible(), res.Evaluation.Detail)
	assertToolpathsClear(t, res.Layout, s.ToolDiameter)
}

func TestZeroGenerationsReturnsBestInitial(t *testing.T) {
	s := testSettings(1000, 500, 2)
	s.Generations = 0
	n, err := New(squareParts(50, 50), s)
	require.NoError(t, err)

	res, err := n.Run()
	require.NoError(t, err)
	assert.Len(t, res.Solution, 2)
}

func TestPopulationArenaAliasing(t *testing.T) {
	p := newPopulation(3, 2)
	ind := p.individual(1)
	ind[0].X = 42
	assert.Equal(t, 42.0, p.genes[2].X)
	assert.Len(t, ind, 2)
	assert.Equal(t, 2, cap(ind), "individual must not grow into its neighbour")
}

func TestCrossoverInheritsSheetAndNormalizesAngle(t *testing.T) {
	g := &geneticSearch{rng: rand.New(rand.NewSource(1))}
	p := newPopulation(4, 3)
	for i := 0; i < 2; i++ {
		ind := p.individual(i)
		for j := range ind {
			ind[j] = model.Placement{PartIndex: j, X: 100, Y: 100, Angle: 359.9, SheetIndex: i + 1}
		}
	}

	child := p.individual(3)
	g.crossover(p, 2, child)
	for j, pl := range child {
		assert.Equal(t, j, pl.PartIndex)
		assert.Contains(t, []int{1, 2}, pl.SheetIndex)
		assert.GreaterOrEqual(t, pl.Angle, 0.0)
		assert.Less(t, pl.Angle, 360.0)
		assert.InDelta(t, 100, pl.X, 1)
		assert.InDelta(t, 100, pl.Y, 1)
	}
}

func assertLayoutFeasible(t *testing.T, layout model.SheetLayout) {
	t.Helper()
	for _, sheet := range layout.Sheets {
		for i, a := range sheet.Parts {
			assert.True(t, geometry.ContainedIn(a.Outline, layout.Width, layout.Height), "part %d leaves sheet %d", a.PartID, sheet.Index)
			for _, b := range sheet.Parts[i+1:] {
				overlap, err := geometry.Overlaps(a.Outline, b.Outline)
				require.NoError(t, err)
				assert.False(t, overlap, "parts %d and %d overlap", a.PartID, b.PartID)
			}
		}
	}
}

// assertToolpathsClear checks that the path a cutter of the given diameter
// follows around each part stays on the sheet and out of every other part.
func assertToolpathsClear(t *testing.T, layout model.SheetLayout, diameter float64) {
	t.Helper()
	for _, sheet := range layout.Sheets {
		for i, a := range sheet.Parts {
			path, err := geometry.Offset(a.Outline, diameter/2)
			require.NoError(t, err)
			// Offset vertices are rounded to the clipping grid, so allow a
			// micron of slack at the sheet edge.
			assert.True(t, geometry.ContainedWithin(path, layout.Width, layout.Height, -1e-3), "toolpath of part %d leaves sheet %d", a.PartID, sheet.Index)
			for j, b := range sheet.Parts {
				if i == j {
					continue
				}
				overlap, err := geometry.Overlaps(path, b.Outline)
				require.NoError(t, err)
				assert.False(t, overlap, "toolpath of part %d cuts into part %d", a.PartID, b.PartID)
			}
		}
	}
}
