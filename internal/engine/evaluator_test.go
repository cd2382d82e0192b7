package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/NestCut/internal/model"
)

func squareParts(sizes ...float64) []model.Part {
	parts := make([]model.Part, len(sizes))
	for i, s := range sizes {
		parts[i] = model.NewRectPart(i+1, string(rune('A'+i)), s, s)
	}
	return parts
}

func TestEvaluateFeasibleTwoParts(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 2)
	sol := model.Solution{
		{PartIndex: 0, X: 10, Y: 10, SheetIndex: 0},
		{PartIndex: 1, X: 500, Y: 200, SheetIndex: 0},
	}

	e := ev.Evaluate(sol)
	assert.Equal(t, Feasible, e.Status, e.Detail)
	assert.Equal(t, 1, e.SheetsUsed)
	assert.InDelta(t, 5000.0/500000.0, e.Fitness(), 1e-12)
}

func TestEvaluateCountsSheetsUsed(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 2)
	sol := model.Solution{
		{PartIndex: 0, X: 0, Y: 0, SheetIndex: 0},
		{PartIndex: 1, X: 0, Y: 0, SheetIndex: 1},
	}

	e := ev.Evaluate(sol)
	assert.True(t, e.Feasible(), e.Detail)
	assert.Equal(t, 2, e.SheetsUsed)
	assert.InDelta(t, 5000.0/(2*500000.0), e.Fitness(), 1e-12)
}

func TestEvaluateMalformed(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 2)

	e := ev.Evaluate(model.Solution{{PartIndex: 0}})
	assert.Equal(t, Malformed, e.Status)
	assert.Zero(t, e.Fitness())

	e = ev.Evaluate(model.Solution{{PartIndex: 1}, {PartIndex: 0}})
	assert.Equal(t, Malformed, e.Status)

	assert.Equal(t, Malformed, ev.Evaluate(nil).Status)
}

func TestEvaluateOverlapping(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 2)
	sol := model.Solution{
		{PartIndex: 0, X: 100, Y: 100, SheetIndex: 1},
		{PartIndex: 1, X: 120, Y: 120, SheetIndex: 1},
	}

	e := ev.Evaluate(sol)
	assert.Equal(t, Overlapping, e.Status)
	assert.Zero(t, e.Fitness())
}

func TestEvaluateTouchingIsNotOverlap(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 1)
	sol := model.Solution{
		{PartIndex: 0, X: 0, Y: 0},
		{PartIndex: 1, X: 50, Y: 0},
	}
	assert.Equal(t, Feasible, ev.Evaluate(sol).Status)
}

func TestEvaluateOutOfBounds(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 2)

	outside := model.Solution{
		{PartIndex: 0, X: 980, Y: 0},
		{PartIndex: 1, X: 0, Y: 0, SheetIndex: 1},
	}
	assert.Equal(t, OutOfBounds, ev.Evaluate(outside).Status)

	badSheet := model.Solution{
		{PartIndex: 0, X: 0, Y: 0},
		{PartIndex: 1, X: 100, Y: 0, SheetIndex: 2},
	}
	assert.Equal(t, OutOfBounds, ev.Evaluate(badSheet).Status)

	negSheet := model.Solution{
		{PartIndex: 0, X: 0, Y: 0, SheetIndex: -1},
		{PartIndex: 1, X: 100, Y: 0},
	}
	assert.Equal(t, OutOfBounds, ev.Evaluate(negSheet).Status)
}

func TestEvaluateRotationLeavesSheet(t *testing.T) {
	// A 45 degree turn pushes the corners of a square placed at the origin
	// past the sheet edge.
	ev := NewEvaluator(squareParts(100), 1200, 1200, 1)
	e := ev.Evaluate(model.Solution{{PartIndex: 0, Angle: 45}})
	assert.Equal(t, OutOfBounds, e.Status)

	e = ev.Evaluate(model.Solution{{PartIndex: 0, X: 100, Y: 100, Angle: 45}})
	assert.Equal(t, Feasible, e.Status)
}

func TestEvaluateGeometryFault(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50), 1000, 500, 2)
	sol := model.Solution{
		{PartIndex: 0, X: math.NaN(), Y: 0},
		{PartIndex: 1, X: 100, Y: 0},
	}
	assert.Equal(t, GeometryFault, ev.Evaluate(sol).Status)

	sol = model.Solution{
		{PartIndex: 0, X: 0, Y: 0, Angle: math.Inf(1)},
		{PartIndex: 1, X: 100, Y: 0},
	}
	assert.Equal(t, GeometryFault, ev.Evaluate(sol).Status)
}

func TestEvaluateSingleFullyCoveredSheet(t *testing.T) {
	ev := NewEvaluator(squareParts(100), 100, 100, 1)
	e := ev.Evaluate(model.Solution{{PartIndex: 0}})
	assert.Equal(t, Feasible, e.Status)
	assert.InDelta(t, 1.0, e.Fitness(), 1e-12)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "feasible", Feasible.String())
	assert.Equal(t, "out_of_bounds", OutOfBounds.String())
	assert.Equal(t, "status(42)", Status(42).String())
	assert.Len(t, AllStatuses(), 5)
}

func TestEvaluateToolClearance(t *testing.T) {
	ev := NewEvaluator(squareParts(100, 100), 1000, 500, 1).WithToolDiameter(6)

	tests := []struct {
		name   string
		ax, bx float64
		want   Status
	}{
		{"one diameter apart", 3, 110, Feasible},
		{"cutter paths cross", 3, 107, Overlapping},
		{"touching", 3, 103, Overlapping},
		{"against sheet edge", 0, 500, OutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ev.Evaluate(model.Solution{
				{PartIndex: 0, X: tt.ax, Y: 3},
				{PartIndex: 1, X: tt.bx, Y: 3},
			})
			assert.Equal(t, tt.want, e.Status, e.Detail)
		})
	}
}

func TestEvaluateToolClearanceSinglePart(t *testing.T) {
	ev := NewEvaluator(squareParts(100), 200, 200, 1).WithToolDiameter(10)

	assert.Equal(t, Feasible, ev.Evaluate(model.Solution{{PartIndex: 0, X: 5, Y: 95}}).Status)
	assert.Equal(t, OutOfBounds, ev.Evaluate(model.Solution{{PartIndex: 0, X: 4, Y: 50}}).Status)
	assert.Equal(t, OutOfBounds, ev.Evaluate(model.Solution{{PartIndex: 0, X: 50, Y: 96}}).Status)
}

func TestEvaluateZeroToolDiameterKeepsExactGeometry(t *testing.T) {
	ev := NewEvaluator(squareParts(100, 100), 1000, 500, 1).WithToolDiameter(0)
	e := ev.Evaluate(model.Solution{
		{PartIndex: 0, X: 0, Y: 0},
		{PartIndex: 1, X: 100, Y: 0},
	})
	assert.Equal(t, Feasible, e.Status, e.Detail)
}

func TestEvaluateUnboundedSheetCount(t *testing.T) {
	ev := NewEvaluator(squareParts(50, 50, 50), 1000, 500, math.MaxInt)
	e := ev.Evaluate(model.Solution{
		{PartIndex: 0, X: 10, Y: 10, SheetIndex: 3},
		{PartIndex: 1, X: 10, Y: 10, SheetIndex: math.MaxInt - 1},
		{PartIndex: 2, X: 100, Y: 10, SheetIndex: 3},
	})
	assert.Equal(t, Feasible, e.Status, e.Detail)
	assert.Equal(t, 2, e.SheetsUsed)
	assert.InDelta(t, 7500.0/(2*500000.0), e.Fitness(), 1e-12)

	e = ev.Evaluate(model.Solution{
		{PartIndex: 0, X: 10, Y: 10, SheetIndex: math.MaxInt - 1},
		{PartIndex: 1, X: 30, Y: 30, SheetIndex: 0},
		{PartIndex: 2, X: 40, Y: 40, SheetIndex: math.MaxInt - 1},
	})
	assert.Equal(t, Overlapping, e.Status, e.Detail)
}
