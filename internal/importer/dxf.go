package importer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// DefaultOutlineLayer is the layer name fragment that marks part outlines.
const DefaultOutlineLayer = "110OO"

// outlineCircleSegments is the resolution used when a free-standing circle
// becomes a part outline.
const outlineCircleSegments = 64

// segment represents a line segment between two 2D points, used for
// chaining disconnected LINE entities into closed outlines.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// shape is a closed figure read from the drawing.
type shape struct {
	layer   string
	outline model.Outline // Polygon; for circles an approximation
	circle  bool
	center  model.Point2D
	radius  float64
}

func (s shape) child() model.ChildShape {
	if s.circle {
		return model.NewCircle(s.center, s.radius)
	}
	return model.NewPolyline(s.outline)
}

func (s shape) anchor() model.Point2D {
	if s.circle {
		return s.center
	}
	return geometry.Centroid(s.outline)
}

// ImportDXF imports parts from a DXF file.
//
// Closed LWPOLYLINEs on layers whose name contains outlineLayer become part
// outlines. CIRCLEs and other closed LWPOLYLINEs whose center lies inside an
// outline become that part's children. When no layer matches, every closed
// shape (including chains of LINEs and ARCs) is a candidate outline and
// shapes nested inside a larger one become its children.
//
// Each outline is moved so its bounding box starts at the origin; its
// children move with it.
func ImportDXF(path, outlineLayer string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var shapes []shape
	var segments []segment

	for _, ent := range entities {
		layer := layerName(ent)
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylineToOutline(e)
			if len(outline) >= 3 {
				shapes = append(shapes, shape{layer: layer, outline: outline})
			} else {
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			center := model.Point2D{X: e.Center[0], Y: e.Center[1]}
			shapes = append(shapes, shape{
				layer:   layer,
				outline: geometry.CirclePolygon(center, e.Radius, outlineCircleSegments),
				circle:  true,
				center:  center,
				radius:  e.Radius,
			})

		case *entity.Arc:
			pts := arcToPoints(e, 32)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point2D{X: e.End[0], Y: e.End[1]},
			})

		default:
			// Unsupported entity types are silently skipped
		}
	}

	// Chain loose segments (LINEs and ARCs) into closed outlines
	for _, co := range chainSegments(segments, 0.01) {
		shapes = append(shapes, shape{outline: co})
	}

	if len(shapes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	assembled := assembleParts(shapes, outlineLayer)
	assembled.Warnings = append(result.Warnings, assembled.Warnings...)
	return assembled
}

// layerName returns the name of the entity's layer, or "" when unset.
func layerName(ent entity.Entity) string {
	if l := ent.Layer(); l != nil {
		return l.Name()
	}
	return ""
}

// partBuilder collects an outline and the children found inside it.
type partBuilder struct {
	outline  model.Outline
	children []model.ChildShape
}

// assembleParts groups shapes into parts with children. See ImportDXF for
// the rules.
func assembleParts(shapes []shape, outlineLayer string) ImportResult {
	result := ImportResult{}
	if outlineLayer == "" {
		outlineLayer = DefaultOutlineLayer
	}

	var builders []*partBuilder
	var rest []shape
	for _, s := range shapes {
		if !s.circle && s.layer != "" && strings.Contains(s.layer, outlineLayer) {
			if err := geometry.Validate(s.outline); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped outline on layer %s: %v", s.layer, err))
				continue
			}
			builders = append(builders, &partBuilder{outline: s.outline})
		} else {
			rest = append(rest, s)
		}
	}

	if len(builders) > 0 {
		// Circles are matched before polylines.
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].circle && !rest[j].circle })
		ignored := 0
		for _, s := range rest {
			if b := findContaining(builders, s.anchor()); b != nil {
				b.children = append(b.children, s.child())
			} else {
				ignored++
			}
		}
		if ignored > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Ignored %d shapes outside any %s outline", ignored, outlineLayer))
		}
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("No layer contains %q, using every closed shape", outlineLayer))
		builders = nestByContainment(rest, &result)
	}

	for _, b := range builders {
		min, max := b.outline.BoundingBox()
		if max.X-min.X < 0.01 || max.Y-min.Y < 0.01 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", max.X-min.X, max.Y-min.Y))
			continue
		}

		id := len(result.Parts) + 1
		part := model.NewPart(id, fmt.Sprintf("DXF Part %d", id), b.outline.Translate(-min.X, -min.Y))
		for _, c := range b.children {
			part.Children = append(part.Children, translateChild(c, -min.X, -min.Y))
		}
		result.Parts = append(result.Parts, part)
	}

	if len(result.Parts) == 0 {
		result.Errors = append(result.Errors, "No usable part outlines found in DXF file")
	}
	return result
}

// nestByContainment turns unlabelled shapes into parts: largest first, a
// shape whose center lies inside an accepted outline becomes its child,
// otherwise it starts a new part.
func nestByContainment(shapes []shape, result *ImportResult) []*partBuilder {
	sorted := append([]shape(nil), shapes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return geometry.Area(sorted[i].outline) > geometry.Area(sorted[j].outline)
	})

	var builders []*partBuilder
	for _, s := range sorted {
		if b := findContaining(builders, s.anchor()); b != nil {
			b.children = append(b.children, s.child())
			continue
		}
		if err := geometry.Validate(s.outline); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped shape: %v", err))
			continue
		}
		builders = append(builders, &partBuilder{outline: s.outline})
	}
	return builders
}

func findContaining(builders []*partBuilder, p model.Point2D) *partBuilder {
	for _, b := range builders {
		if geometry.Contains(b.outline, p) {
			return b
		}
	}
	return nil
}

func translateChild(c model.ChildShape, dx, dy float64) model.ChildShape {
	if c.Kind == model.ShapeCircle {
		return model.NewCircle(model.Point2D{X: c.Center.X + dx, Y: c.Center.Y + dy}, c.Radius)
	}
	return model.NewPolyline(c.Points.Translate(dx, dy))
}

// lwPolylineToOutline converts a DXF LWPOLYLINE entity to an Outline.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToOutline(lw *entity.LwPolyline) model.Outline {
	var outline model.Outline

	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := model.Point2D{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := model.Point2D{X: lw.Vertices[nextIdx][0], Y: lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, 32)
			// The next vertex is added by its own iteration
			outline = append(outline, arcPts[:len(arcPts)-1]...)
		} else {
			outline = append(outline, current)
		}
	}

	return outline
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 model.Point2D, bulge float64, numSegments int) model.Outline {
	mx := (p1.X + p2.X) / 2
	my := (p1.Y + p2.Y) / 2
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	chordLen := math.Sqrt(dx*dx + dy*dy)
	if chordLen < 1e-9 {
		return model.Outline{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	// Center lies on the chord's perpendicular bisector
	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make(model.Outline, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, model.Point2D{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}
	return pts
}

// arcToPoints converts a DXF ARC entity to a series of line points.
func arcToPoints(a *entity.Arc, numSegments int) []model.Point2D {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius

	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]model.Point2D, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = model.Point2D{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		}
	}
	return pts
}

// pointsToSegments converts a point sequence to a slice of connected segments.
func pointsToSegments(pts []model.Point2D) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
func chainSegments(segs []segment, tolerance float64) []model.Outline {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines []model.Outline

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []model.Point2D{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		// Only closed chains describe an outline
		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, model.Outline(chain[:len(chain)-1]))
		}
	}

	// Largest first for consistent ordering
	sort.SliceStable(outlines, func(i, j int) bool {
		return geometry.Area(outlines[i]) > geometry.Area(outlines[j])
	})

	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}
