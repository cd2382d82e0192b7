// Package geometry implements the rigid-body transforms and polygon
// predicates used to evaluate and materialize nesting layouts.
//
// Rotation is always applied first, about an explicit pivot, and the
// translation second. Every transform preserves vertex count and order.
package geometry

import (
	"math"

	"github.com/piwi3910/NestCut/internal/model"
)

// TransformPoint rotates p by deg degrees counter-clockwise about pivot and
// then translates it by (dx, dy).
func TransformPoint(p model.Point2D, deg float64, pivot model.Point2D, dx, dy float64) model.Point2D {
	sin, cos := sincosDeg(deg)
	return transformPoint(p, sin, cos, pivot, dx, dy)
}

// Transform rotates every vertex of o about pivot and then translates the
// result by (dx, dy).
func Transform(o model.Outline, deg float64, pivot model.Point2D, dx, dy float64) model.Outline {
	sin, cos := sincosDeg(deg)
	out := make(model.Outline, len(o))
	for i, p := range o {
		out[i] = transformPoint(p, sin, cos, pivot, dx, dy)
	}
	return out
}

// TransformAboutCentroid rotates o about its own area centroid, then
// translates it. This is the pose a Placement describes.
func TransformAboutCentroid(o model.Outline, deg, dx, dy float64) model.Outline {
	return Transform(o, deg, Centroid(o), dx, dy)
}

// Place applies a placement's pose to a part outline.
func Place(o model.Outline, p model.Placement) model.Outline {
	return TransformAboutCentroid(o, p.Angle, p.X, p.Y)
}

// ChildPivot returns the point a child shape rotates about when it uses its
// own centroid: the center for circles, the area centroid for polylines.
func ChildPivot(c model.ChildShape) model.Point2D {
	if c.Kind == model.ShapeCircle {
		return c.Center
	}
	return Centroid(c.Points)
}

// TransformChild applies the rotation and translation to a child shape.
// Circles keep their radius; only the center moves.
func TransformChild(c model.ChildShape, deg float64, pivot model.Point2D, dx, dy float64) model.ChildShape {
	switch c.Kind {
	case model.ShapeCircle:
		return model.ChildShape{
			Kind:   model.ShapeCircle,
			Center: TransformPoint(c.Center, deg, pivot, dx, dy),
			Radius: c.Radius,
		}
	default:
		return model.ChildShape{
			Kind:   c.Kind,
			Points: Transform(c.Points, deg, pivot, dx, dy),
		}
	}
}

// CirclePolygon approximates a circle by a regular polygon with the given
// number of segments, starting at angle zero and running counter-clockwise.
func CirclePolygon(center model.Point2D, radius float64, segments int) model.Outline {
	if segments < 3 {
		segments = 3
	}
	out := make(model.Outline, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		out[i] = model.Point2D{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		}
	}
	return out
}

func sincosDeg(deg float64) (sin, cos float64) {
	a := model.NormalizeAngle(deg)
	// Exact values for the quarter turns the single-part search relies on.
	switch a {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(a * math.Pi / 180)
}

func transformPoint(p model.Point2D, sin, cos float64, pivot model.Point2D, dx, dy float64) model.Point2D {
	x := p.X - pivot.X
	y := p.Y - pivot.Y
	return model.Point2D{
		X: pivot.X + x*cos - y*sin + dx,
		Y: pivot.Y + x*sin + y*cos + dy,
	}
}
