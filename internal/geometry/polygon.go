package geometry

import (
	"errors"
	"fmt"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/NestCut/internal/model"
)

const (
	// clipScale converts mm to the integer grid used for polygon clipping
	// (0.1 µm resolution).
	clipScale = 1e4

	// OverlapTolerance is the intersection area in mm² below which two
	// outlines are considered to merely touch.
	OverlapTolerance = 1e-3

	// ContainTolerance absorbs floating point noise at the sheet boundary.
	ContainTolerance = 1e-9

	minArea = 1e-9
)

var (
	ErrDegenerate = errors.New("degenerate polygon")
	ErrNonFinite  = errors.New("non-finite coordinate")
	ErrClip       = errors.New("polygon clipping failed")
)

// ring converts an outline to a closed orb ring.
func ring(o model.Outline) orb.Ring {
	r := make(orb.Ring, 0, len(o)+1)
	for _, p := range o {
		r = append(r, orb.Point{p.X, p.Y})
	}
	if len(o) > 0 {
		r = append(r, orb.Point{o[0].X, o[0].Y})
	}
	return r
}

// Area returns the absolute enclosed area of o.
func Area(o model.Outline) float64 {
	if len(o) < 3 {
		return 0
	}
	return math.Abs(planar.Area(orb.Polygon{ring(o)}))
}

// NetArea returns the material area of p: its outline minus every child
// cut-out, never below zero.
func NetArea(p model.Part) float64 {
	area := Area(p.Outline)
	for _, c := range p.Children {
		switch c.Kind {
		case model.ShapeCircle:
			area -= math.Pi * c.Radius * c.Radius
		case model.ShapePolyline:
			area -= Area(c.Points)
		}
	}
	return math.Max(area, 0)
}

// Centroid returns the area centroid of o. Outlines with no area fall back
// to the mean of their vertices.
func Centroid(o model.Outline) model.Point2D {
	if len(o) == 0 {
		return model.Point2D{}
	}
	if len(o) >= 3 {
		c, a := planar.CentroidArea(orb.Polygon{ring(o)})
		if math.Abs(a) > minArea {
			return model.Point2D{X: c[0], Y: c[1]}
		}
	}
	var sx, sy float64
	for _, p := range o {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(o))
	return model.Point2D{X: sx / n, Y: sy / n}
}

// Bounds returns the axis-aligned bounding box of o.
func Bounds(o model.Outline) orb.Bound {
	return ring(o).Bound()
}

// Validate reports whether o is a usable polygon: at least three finite
// vertices enclosing a positive area.
func Validate(o model.Outline) error {
	if len(o) < 3 {
		return fmt.Errorf("%w: %d vertices", ErrDegenerate, len(o))
	}
	for i, p := range o {
		if !p.IsFinite() {
			return fmt.Errorf("%w: vertex %d", ErrNonFinite, i)
		}
	}
	if Area(o) <= minArea {
		return fmt.Errorf("%w: zero area", ErrDegenerate)
	}
	return nil
}

// Contains reports whether p lies inside o.
func Contains(o model.Outline, p model.Point2D) bool {
	if len(o) < 3 {
		return false
	}
	return planar.RingContains(ring(o), orb.Point{p.X, p.Y})
}

// ContainedIn reports whether every vertex of o lies within the
// origin-anchored w×h rectangle. Touching the boundary is allowed.
func ContainedIn(o model.Outline, w, h float64) bool {
	return ContainedWithin(o, w, h, 0)
}

// ContainedWithin is ContainedIn with the rectangle shrunk by margin on
// every side.
func ContainedWithin(o model.Outline, w, h, margin float64) bool {
	sheet := orb.Bound{Min: orb.Point{margin, margin}, Max: orb.Point{w - margin, h - margin}}.Pad(ContainTolerance)
	for _, p := range o {
		if !sheet.Contains(orb.Point{p.X, p.Y}) {
			return false
		}
	}
	return len(o) > 0
}

func toPath(o model.Outline) clipper.Path {
	path := make(clipper.Path, len(o))
	for i, p := range o {
		path[i] = &clipper.IntPoint{
			X: clipper.CInt(math.Round(p.X * clipScale)),
			Y: clipper.CInt(math.Round(p.Y * clipScale)),
		}
	}
	return path
}

// IntersectionArea returns the area shared by a and b. Clipping library
// panics are converted to errors.
func IntersectionArea(a, b model.Outline) (area float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			area, err = 0, fmt.Errorf("%w: %v", ErrClip, r)
		}
	}()

	c := clipper.NewClipper(clipper.IoNone)
	if !c.AddPath(toPath(a), clipper.PtSubject, true) {
		return 0, fmt.Errorf("%w: subject rejected", ErrDegenerate)
	}
	if !c.AddPath(toPath(b), clipper.PtClip, true) {
		return 0, fmt.Errorf("%w: clip rejected", ErrDegenerate)
	}
	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return 0, ErrClip
	}
	for _, p := range solution {
		area += math.Abs(clipper.Area(p))
	}
	return area / (clipScale * clipScale), nil
}

// Overlaps reports whether a and b share a positive area. Outlines that
// only touch along an edge or at a vertex do not overlap.
func Overlaps(a, b model.Outline) (bool, error) {
	if !Bounds(a).Intersects(Bounds(b)) {
		return false, nil
	}
	area, err := IntersectionArea(a, b)
	if err != nil {
		return false, err
	}
	return area > OverlapTolerance, nil
}

// Offset grows o outward by dist mm (shrinks it for negative dist) with
// rounded corners. When the offset splits the outline, the largest piece is
// returned.
func Offset(o model.Outline, dist float64) (out model.Outline, err error) {
	if err := Validate(o); err != nil {
		return nil, err
	}
	if dist == 0 {
		return o.Clone(), nil
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrClip, r)
		}
	}()

	co := clipper.NewClipperOffset()
	co.ArcTolerance = 0.01 * clipScale
	co.AddPath(toPath(o), clipper.JtRound, clipper.EtClosedPolygon)
	solution := co.Execute(dist * clipScale)

	var best clipper.Path
	bestArea := 0.0
	for _, p := range solution {
		if a := math.Abs(clipper.Area(p)); a > bestArea {
			best, bestArea = p, a
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: offset by %.3f collapses outline", ErrDegenerate, dist)
	}
	out = make(model.Outline, len(best))
	for i, p := range best {
		out[i] = model.Point2D{X: float64(p.X) / clipScale, Y: float64(p.Y) / clipScale}
	}
	return out, nil
}
