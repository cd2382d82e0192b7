package model

import (
	"fmt"
	"math"
)

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point2D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = Point2D{X: o[0].X, Y: o[0].Y}
	max = Point2D{X: o[0].X, Y: o[0].Y}
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Size returns the width and height of the outline's bounding box.
func (o Outline) Size() (w, h float64) {
	min, max := o.BoundingBox()
	return max.X - min.X, max.Y - min.Y
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Clone returns a copy of the outline that shares no memory with o.
func (o Outline) Clone() Outline {
	if o == nil {
		return nil
	}
	result := make(Outline, len(o))
	copy(result, o)
	return result
}

// ShapeKind discriminates the variants of a ChildShape.
type ShapeKind string

const (
	ShapeCircle   ShapeKind = "circle"
	ShapePolyline ShapeKind = "polyline"
)

// ChildShape is a nested feature of a part such as a drilled hole or an
// inner cut-out. Exactly one variant is populated, selected by Kind:
// circles use Center and Radius, polylines use Points.
type ChildShape struct {
	Kind   ShapeKind `json:"kind" toml:"kind"`
	Center Point2D   `json:"center,omitempty" toml:"center,omitempty"`
	Radius float64   `json:"radius,omitempty" toml:"radius,omitempty"`
	Points Outline   `json:"points,omitempty" toml:"points,omitempty"`
}

// NewCircle returns a circular child shape.
func NewCircle(center Point2D, radius float64) ChildShape {
	return ChildShape{Kind: ShapeCircle, Center: center, Radius: radius}
}

// NewPolyline returns a closed polyline child shape.
func NewPolyline(points Outline) ChildShape {
	return ChildShape{Kind: ShapePolyline, Points: points}
}

// Validate checks that the populated fields match the shape kind.
func (c ChildShape) Validate() error {
	switch c.Kind {
	case ShapeCircle:
		if !c.Center.IsFinite() || math.IsNaN(c.Radius) || c.Radius <= 0 {
			return fmt.Errorf("circle needs a finite center and a positive radius")
		}
	case ShapePolyline:
		if len(c.Points) < 3 {
			return fmt.Errorf("polyline needs at least 3 points, got %d", len(c.Points))
		}
	default:
		return fmt.Errorf("unknown child shape kind %q", c.Kind)
	}
	return nil
}

// Part represents an irregular piece to be nested. ID is assigned once at
// ingestion and identifies the part for the rest of a run.
type Part struct {
	ID       int          `json:"id" toml:"id"`
	Label    string       `json:"label" toml:"label"`
	Outline  Outline      `json:"outline" toml:"outline"`
	Children []ChildShape `json:"children,omitempty" toml:"children,omitempty"`
}

// NewPart creates a part with no child shapes.
func NewPart(id int, label string, outline Outline) Part {
	return Part{
		ID:      id,
		Label:   label,
		Outline: outline,
	}
}

// NewRectPart creates an axis-aligned rectangular part anchored at the origin.
func NewRectPart(id int, label string, w, h float64) Part {
	return NewPart(id, label, Outline{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	})
}

// Placement is the pose chosen for one part: a rotation in degrees about
// the part's centroid, followed by a translation of (X, Y) mm, on the sheet
// SheetIndex. Angle is interpreted modulo 360.
type Placement struct {
	PartIndex  int     `json:"part_index" toml:"part_index"`
	X          float64 `json:"x" toml:"x"`
	Y          float64 `json:"y" toml:"y"`
	Angle      float64 `json:"angle" toml:"angle"`             // degrees, [0, 360) once normalized
	SheetIndex int     `json:"sheet_index" toml:"sheet_index"` // [0, MaxSheets)
}

// NormalizeAngle maps any angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// Solution holds exactly one Placement per part, indexed like the part list.
type Solution []Placement

// Clone returns a deep copy of the solution.
func (s Solution) Clone() Solution {
	if s == nil {
		return nil
	}
	cp := make(Solution, len(s))
	copy(cp, s)
	return cp
}

// SheetsUsed returns the number of distinct sheet indices referenced by s.
func (s Solution) SheetsUsed() int {
	seen := make(map[int]struct{}, len(s))
	for _, p := range s {
		seen[p.SheetIndex] = struct{}{}
	}
	return len(seen)
}
