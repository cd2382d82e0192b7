package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/NestCut/internal/model"
)

func square(x, y, size float64) model.Outline {
	return model.Outline{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func assertPointNear(t *testing.T, want, got model.Point2D) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
}

func TestTransformIdentityAtZeroAngle(t *testing.T) {
	o := model.Outline{{X: 1, Y: 2}, {X: 7, Y: 3}, {X: 4, Y: 9}}
	got := TransformAboutCentroid(o, 0, 0, 0)

	require.Len(t, got, len(o))
	for i := range o {
		assertPointNear(t, o[i], got[i])
	}
}

func TestTransformPreservesVertexCountAndOrder(t *testing.T) {
	o := model.Outline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 12, Y: 5}, {X: 6, Y: 9}, {X: -1, Y: 4}}
	got := Transform(o, 33.3, model.Point2D{X: 2, Y: 2}, 5, -3)
	require.Len(t, got, len(o))

	// Distances between consecutive vertices are invariant under rigid motion.
	for i := range o {
		j := (i + 1) % len(o)
		want := math.Hypot(o[j].X-o[i].X, o[j].Y-o[i].Y)
		have := math.Hypot(got[j].X-got[i].X, got[j].Y-got[i].Y)
		assert.InDelta(t, want, have, 1e-9)
	}
}

func TestTransformRotatesAboutCentroidThenTranslates(t *testing.T) {
	o := model.Outline{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}, {X: 0, Y: 10}}
	got := TransformAboutCentroid(o, 90, 100, 50)

	// Centroid (10,5) moves by the translation only.
	assertPointNear(t, model.Point2D{X: 110, Y: 55}, Centroid(got))
	w, h := got.Size()
	assert.InDelta(t, 10, w, 1e-9)
	assert.InDelta(t, 20, h, 1e-9)
	assertPointNear(t, model.Point2D{X: 115, Y: 45}, got[0])
}

func TestPlaceUsesPlacementPose(t *testing.T) {
	o := square(0, 0, 10)
	got := Place(o, model.Placement{X: 5, Y: 7, Angle: 180})
	assertPointNear(t, model.Point2D{X: 15, Y: 17}, got[0])
}

func TestTransformChildKeepsCircleRadius(t *testing.T) {
	c := model.NewCircle(model.Point2D{X: 10, Y: 0}, 3)
	got := TransformChild(c, 90, model.Point2D{}, 1, 1)

	assert.Equal(t, model.ShapeCircle, got.Kind)
	assert.Equal(t, 3.0, got.Radius)
	assertPointNear(t, model.Point2D{X: 1, Y: 11}, got.Center)
}

func TestTransformChildPolyline(t *testing.T) {
	c := model.NewPolyline(square(2, 2, 2))
	got := TransformChild(c, 0, ChildPivot(c), 10, 0)

	require.Len(t, got.Points, 4)
	assertPointNear(t, model.Point2D{X: 12, Y: 2}, got.Points[0])
	assertPointNear(t, model.Point2D{X: 3, Y: 3}, ChildPivot(c))
}

func TestAreaAndCentroid(t *testing.T) {
	o := square(0, 0, 10)
	assert.InDelta(t, 100, Area(o), 1e-9)
	assertPointNear(t, model.Point2D{X: 5, Y: 5}, Centroid(o))

	// Orientation does not change the absolute area.
	rev := model.Outline{o[3], o[2], o[1], o[0]}
	assert.InDelta(t, 100, Area(rev), 1e-9)

	line := model.Outline{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 4, Y: 0}}
	assert.Zero(t, Area(line))
	assertPointNear(t, model.Point2D{X: 2, Y: 0}, Centroid(line))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(square(0, 0, 1)))
	assert.ErrorIs(t, Validate(model.Outline{{X: 0, Y: 0}, {X: 1, Y: 1}}), ErrDegenerate)
	assert.ErrorIs(t, Validate(model.Outline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}), ErrDegenerate)
	assert.ErrorIs(t, Validate(model.Outline{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 1, Y: 1}}), ErrNonFinite)
}

func TestContainedIn(t *testing.T) {
	assert.True(t, ContainedIn(square(0, 0, 100), 100, 100), "touching the boundary is allowed")
	assert.True(t, ContainedIn(square(10, 10, 5), 100, 100))
	assert.False(t, ContainedIn(square(-0.5, 0, 10), 100, 100))
	assert.False(t, ContainedIn(square(95, 95, 10), 100, 100))
	assert.False(t, ContainedIn(nil, 100, 100))
}

func TestContainedWithin(t *testing.T) {
	assert.True(t, ContainedWithin(square(3, 3, 94), 100, 100, 3), "touching the inset boundary is allowed")
	assert.False(t, ContainedWithin(square(2, 3, 10), 100, 100, 3))
	assert.False(t, ContainedWithin(square(3, 3, 95), 100, 100, 3))
	assert.False(t, ContainedWithin(square(40, 40, 10), 100, 100, 60), "margin wider than half the sheet")
	assert.True(t, ContainedWithin(square(-1, 0, 10), 100, 100, -1))
}

func TestContains(t *testing.T) {
	o := square(0, 0, 10)
	assert.True(t, Contains(o, model.Point2D{X: 5, Y: 5}))
	assert.False(t, Contains(o, model.Point2D{X: 15, Y: 5}))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Outline
		want bool
	}{
		{"disjoint", square(0, 0, 10), square(20, 20, 10), false},
		{"sharing an edge", square(0, 0, 10), square(10, 0, 10), false},
		{"sharing a corner", square(0, 0, 10), square(10, 10, 10), false},
		{"partial overlap", square(0, 0, 10), square(5, 5, 10), true},
		{"nested", square(0, 0, 10), square(2, 2, 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Overlaps(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntersectionArea(t *testing.T) {
	area, err := IntersectionArea(square(0, 0, 10), square(5, 5, 10))
	require.NoError(t, err)
	assert.InDelta(t, 25, area, 1e-6)
}

func TestOffset(t *testing.T) {
	o := square(0, 0, 10)

	grown, err := Offset(o, 1)
	require.NoError(t, err)
	w, h := grown.Size()
	assert.InDelta(t, 12, w, 1e-3)
	assert.InDelta(t, 12, h, 1e-3)

	shrunk, err := Offset(o, -1)
	require.NoError(t, err)
	assert.InDelta(t, 64, Area(shrunk), 1e-3)

	_, err = Offset(o, -6)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestCirclePolygon(t *testing.T) {
	c := CirclePolygon(model.Point2D{X: 5, Y: 5}, 2, 24)
	require.Len(t, c, 24)
	assertPointNear(t, model.Point2D{X: 7, Y: 5}, c[0])
	for _, p := range c {
		assert.InDelta(t, 2, math.Hypot(p.X-5, p.Y-5), 1e-9)
	}
	assert.Len(t, CirclePolygon(model.Point2D{}, 1, 1), 3)
}

func TestNetArea(t *testing.T) {
	plate := model.NewRectPart(1, "Plate", 100, 50)
	assert.InDelta(t, 5000, NetArea(plate), 1e-9)

	plate.Children = []model.ChildShape{
		model.NewCircle(model.Point2D{X: 25, Y: 25}, 10),
		model.NewPolyline(square(60, 10, 20)),
	}
	assert.InDelta(t, 5000-math.Pi*100-400, NetArea(plate), 1e-9)

	plate.Children = []model.ChildShape{model.NewCircle(model.Point2D{X: 50, Y: 25}, 200)}
	assert.Zero(t, NetArea(plate), "oversized cut-outs clamp to zero")
}
