package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// Status classifies the outcome of evaluating a candidate solution.
type Status int

const (
	Feasible      Status = iota
	Malformed            // Placement count or order does not match the part list
	Overlapping          // Two parts on the same sheet share a positive area
	OutOfBounds          // A part leaves its sheet or uses a sheet index out of range
	GeometryFault        // Non-finite coordinates or a clipping failure
)

var statusNames = [...]string{
	Feasible:      "feasible",
	Malformed:     "malformed",
	Overlapping:   "overlapping",
	OutOfBounds:   "out_of_bounds",
	GeometryFault: "geometry_fault",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// AllStatuses lists every status value in declaration order.
func AllStatuses() []Status {
	return []Status{Feasible, Malformed, Overlapping, OutOfBounds, GeometryFault}
}

// Evaluation is the verdict on one candidate solution.
type Evaluation struct {
	Status      Status
	Utilization float64 // Part area over the area of the sheets used
	SheetsUsed  int
	Detail      string // Human readable reason when not feasible
}

// Fitness returns the utilization of a feasible solution and 0 otherwise.
func (e Evaluation) Fitness() float64 {
	if e.Status != Feasible {
		return 0
	}
	return e.Utilization
}

// Feasible reports whether the solution passed every check.
func (e Evaluation) Feasible() bool {
	return e.Status == Feasible
}

func infeasible(s Status, format string, args ...any) Evaluation {
	return Evaluation{Status: s, Detail: fmt.Sprintf(format, args...)}
}

// Evaluator scores solutions against a fixed part list and sheet size.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	parts     []model.Part
	pivots    []model.Point2D // Outline centroids
	areas     []float64
	total     float64
	sheetW    float64
	sheetH    float64
	maxSheets int
	clearance float64 // Tool radius kept free around every outline
}

// NewEvaluator precomputes the per-part data used by Evaluate.
func NewEvaluator(parts []model.Part, sheetW, sheetH float64, maxSheets int) *Evaluator {
	ev := &Evaluator{
		parts:     parts,
		pivots:    make([]model.Point2D, len(parts)),
		areas:     make([]float64, len(parts)),
		sheetW:    sheetW,
		sheetH:    sheetH,
		maxSheets: maxSheets,
	}
	for i, p := range parts {
		ev.pivots[i] = geometry.Centroid(p.Outline)
		ev.areas[i] = geometry.Area(p.Outline)
		ev.total += ev.areas[i]
	}
	return ev
}

// WithToolDiameter makes the evaluator keep the band a cutter of diameter d
// sweeps around each outline free: outlines stay d/2 inside the sheet and
// d apart from each other. It must be called before the first Evaluate.
func (ev *Evaluator) WithToolDiameter(d float64) *Evaluator {
	if d > 0 {
		ev.clearance = d / 2
	}
	return ev
}

// PartArea returns the outline area of the part at index i.
func (ev *Evaluator) PartArea(i int) float64 {
	return ev.areas[i]
}

// TotalArea returns the summed outline area of all parts.
func (ev *Evaluator) TotalArea() float64 {
	return ev.total
}

func (ev *Evaluator) sheetArea() float64 {
	return ev.sheetW * ev.sheetH
}

// place transforms the outline of part i into sheet coordinates.
func (ev *Evaluator) place(i int, p model.Placement) model.Outline {
	return geometry.Transform(ev.parts[i].Outline, p.Angle, ev.pivots[i], p.X, p.Y)
}

// Evaluate checks a solution for structure, sheet containment and pairwise
// overlap and returns its utilization. Any panic raised while evaluating is
// reported as a GeometryFault.
func (ev *Evaluator) Evaluate(sol model.Solution) (result Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			result = infeasible(GeometryFault, "recovered: %v", r)
		}
	}()

	if len(sol) != len(ev.parts) {
		return infeasible(Malformed, "%d placements for %d parts", len(sol), len(ev.parts))
	}
	if len(sol) == 0 {
		return infeasible(Malformed, "empty solution")
	}

	placed := make([]model.Outline, len(sol))
	for i, p := range sol {
		if p.PartIndex != i {
			return infeasible(Malformed, "placement %d refers to part %d", i, p.PartIndex)
		}
		if p.SheetIndex < 0 || p.SheetIndex >= ev.maxSheets {
			return infeasible(OutOfBounds, "part %d on sheet %d of %d", i, p.SheetIndex, ev.maxSheets)
		}
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) ||
			math.IsNaN(p.Angle) || math.IsInf(p.Angle, 0) {
			return infeasible(GeometryFault, "part %d has a non-finite pose", i)
		}
		o := ev.place(i, p)
		for _, pt := range o {
			if !pt.IsFinite() {
				return infeasible(GeometryFault, "part %d transforms to non-finite coordinates", i)
			}
		}
		if !geometry.ContainedWithin(o, ev.sheetW, ev.sheetH, ev.clearance) {
			return infeasible(OutOfBounds, "part %d leaves sheet %d", i, p.SheetIndex)
		}
		placed[i] = o
	}

	if len(sol) == 1 {
		return Evaluation{
			Status:      Feasible,
			Utilization: ev.areas[0] / ev.sheetArea(),
			SheetsUsed:  1,
		}
	}

	// Overlap is tested on the outlines grown by the tool radius, so two
	// cutter paths never reach into each other's part.
	swept := placed
	if ev.clearance > 0 {
		swept = make([]model.Outline, len(placed))
		for i, o := range placed {
			grown, err := geometry.Offset(o, ev.clearance)
			if err != nil {
				return infeasible(GeometryFault, "part %d: %v", i, err)
			}
			swept[i] = grown
		}
	}

	bounds := make([]orb.Bound, len(swept))
	for i, o := range swept {
		bounds[i] = geometry.Bounds(o)
	}

	// Part indices ordered by sheet, keeping part order within a sheet.
	order := make([]int, len(sol))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sol[order[a]].SheetIndex < sol[order[b]].SheetIndex
	})

	used := 0
	for lo := 0; lo < len(order); {
		sheet := sol[order[lo]].SheetIndex
		hi := lo + 1
		for hi < len(order) && sol[order[hi]].SheetIndex == sheet {
			hi++
		}
		used++
		members := order[lo:hi]
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				i, j := members[a], members[b]
				if !bounds[i].Intersects(bounds[j]) {
					continue
				}
				overlap, err := geometry.Overlaps(swept[i], swept[j])
				if err != nil {
					return infeasible(GeometryFault, "parts %d and %d: %v", i, j, err)
				}
				if overlap {
					return infeasible(Overlapping, "parts %d and %d overlap on sheet %d", i, j, sheet)
				}
			}
		}
		lo = hi
	}

	return Evaluation{
		Status:      Feasible,
		Utilization: ev.TotalArea() / (float64(used) * ev.sheetArea()),
		SheetsUsed:  used,
	}
}
