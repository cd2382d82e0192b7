// Package export writes nesting layouts to PDF drawings, QR labels, Excel
// reports and an interactive HTML viewer.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/NestCut/internal/geometry"
	"github.com/piwi3910/NestCut/internal/model"
)

// partColor represents an RGB color for a placed part.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// sheetFill is the material color, also used to punch holes out of parts.
var sheetFill = partColor{R: 210, G: 180, B: 140}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// canvas maps sheet millimetres (origin bottom-left, Y up) to page
// millimetres (origin top-left, Y down).
type canvas struct {
	scale, offsetX, offsetY, sheetH float64
}

func (c canvas) point(p model.Point2D) fpdf.PointType {
	return fpdf.PointType{X: c.offsetX + p.X*c.scale, Y: c.offsetY + (c.sheetH-p.Y)*c.scale}
}

func (c canvas) polygon(o model.Outline) []fpdf.PointType {
	pts := make([]fpdf.PointType, len(o))
	for i, p := range o {
		pts[i] = c.point(p)
	}
	return pts
}

// ExportPDF generates a PDF document with one page per populated sheet,
// each showing the placed outlines and their holes, followed by a summary
// page. An empty layout writes nothing.
func ExportPDF(path string, layout model.SheetLayout, settings model.NestSettings) error {
	if layout.Empty() {
		return nil
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, sheet := range layout.Sheets {
		pdf.AddPage()
		renderSheetPage(pdf, layout, sheet, settings)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, layout, settings)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

// renderSheetPage draws a single sheet on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, layout model.SheetLayout, sheet model.LayoutSheet, settings model.NestSettings) {
	st := statsForSheet(layout, sheet)

	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d (%.0f x %.0f mm)", sheet.Index+1, layout.Width, layout.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	// Stats line
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Parts: %d | Holes: %d | Used area: %.0f mm2 | Sheet area: %.0f mm2 | Utilization: %.1f%%",
		st.Parts, st.Holes, st.UsedArea, st.TotalArea, st.Utilization())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/layout.Width, drawHeight/layout.Height)

	canvasW := layout.Width * scale
	canvasH := layout.Height * scale
	c := canvas{
		scale:   scale,
		offsetX: marginLeft + (drawWidth-canvasW)/2,
		offsetY: drawAreaTop,
		sheetH:  layout.Height,
	}

	// Sheet background
	pdf.SetFillColor(sheetFill.R, sheetFill.G, sheetFill.B)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(c.offsetX, c.offsetY, canvasW, canvasH, "FD")

	drawClampZones(pdf, settings.ClampZones, c)

	for i, p := range sheet.Parts {
		drawPart(pdf, p, partColors[i%len(partColors)], c)
	}

	drawDimensionAnnotations(pdf, layout, c.offsetX, c.offsetY, canvasW, canvasH)
	drawPartsLegend(pdf, sheet, c.offsetY+canvasH+5)
}

// drawPart fills the outline, punches its holes with the sheet color and
// writes the label at the outline centroid.
func drawPart(pdf *fpdf.Fpdf, p model.TransformedPart, col partColor, c canvas) {
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	pdf.Polygon(c.polygon(p.Outline), "FD")

	pdf.SetFillColor(sheetFill.R, sheetFill.G, sheetFill.B)
	pdf.SetLineWidth(0.2)
	for _, child := range p.Children {
		if child.Kind == model.ShapeCircle {
			center := c.point(child.Center)
			pdf.Circle(center.X, center.Y, child.Radius*c.scale, "FD")
			continue
		}
		pdf.Polygon(c.polygon(child.Polygon), "FD")
	}

	w, h := p.Outline.Size()
	pw, ph := w*c.scale, h*c.scale
	if pw <= 15 || ph <= 8 {
		return
	}
	pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
	pdf.SetTextColor(0, 0, 0)

	at := c.point(geometry.Centroid(p.Outline))
	label := p.Label
	dims := fmt.Sprintf("%.0fx%.0f", w, h)
	labelW := pdf.GetStringWidth(label)
	dimsW := pdf.GetStringWidth(dims)

	if labelW < pw-2 {
		pdf.SetXY(at.X-labelW/2, at.Y-4)
		pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
	}
	if ph > 14 && dimsW < pw-2 {
		pdf.SetXY(at.X-dimsW/2, at.Y)
		pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
	}
}

// drawClampZones renders clamp zones as hatched no-cut areas.
func drawClampZones(pdf *fpdf.Fpdf, zones []model.ClampZone, c canvas) {
	for _, zone := range zones {
		// Top-left corner on the page is the zone's top edge in sheet space.
		tl := c.point(model.Point2D{X: zone.X, Y: zone.Y + zone.Height})
		zw := zone.Width * c.scale
		zh := zone.Height * c.scale

		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Rect(tl.X, tl.Y, zw, zh, "FD")

		drawHatchPattern(pdf, tl.X, tl.Y, zw, zh)

		if zw > 20 && zh > 8 {
			text := "CLAMP"
			if zone.Label != "" {
				text = zone.Label
			}
			pdf.SetFont("Helvetica", "B", 6)
			pdf.SetTextColor(180, 0, 0)
			labelW := pdf.GetStringWidth(text)
			pdf.SetXY(tl.X+(zw-labelW)/2, tl.Y+zh/2-2)
			pdf.CellFormat(labelW, 4, text, "", 0, "C", false, 0, "")
		}
	}

	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to indicate exclusion zones.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations adds width and height dimension labels outside the sheet rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, layout model.SheetLayout, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", layout.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f mm", layout.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawPartsLegend renders a compact legend of placed parts below the sheet.
func drawPartsLegend(pdf *fpdf.Fpdf, sheet model.LayoutSheet, startY float64) {
	if len(sheet.Parts) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Parts placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range sheet.Parts {
		col := partColors[i%len(partColors)]
		label := fmt.Sprintf("#%d %s", p.PartID, p.Label)
		if a := p.Placement.Angle; a != 0 {
			label += fmt.Sprintf(" @%.0f", a)
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, layout model.SheetLayout, settings model.NestSettings) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Sheets Used", fmt.Sprintf("%d of %d", len(layout.Sheets), settings.MaxSheets)},
		{"Overall Utilization", fmt.Sprintf("%.1f%%", layoutUtilization(layout))},
		{"Parts Placed", fmt.Sprintf("%d", layout.PartCount())},
		{"Sheet Size", fmt.Sprintf("%.0f x %.0f mm", layout.Width, layout.Height)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{25, 35, 35, 45, 60}
	headers := []string{"Sheet", "Parts", "Holes", "Utilization", "Used / Total Area"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, sheet := range layout.Sheets {
		st := statsForSheet(layout, sheet)
		xPos = marginLeft
		rowData := []string{
			fmt.Sprintf("%d", sheet.Index+1),
			fmt.Sprintf("%d", st.Parts),
			fmt.Sprintf("%d", st.Holes),
			fmt.Sprintf("%.1f%%", st.Utilization()),
			fmt.Sprintf("%.0f / %.0f mm2", st.UsedArea, st.TotalArea),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6

		// Long jobs continue the table on a fresh page.
		if y > pageHeight-marginBottom-50 && i < len(layout.Sheets)-1 {
			pdf.AddPage()
			y = marginTop
		}
	}

	y += 8
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Run Settings", "", 0, "L", false, 0, "")
	y += 9

	settingsItems := []struct {
		label string
		value string
	}{
		{"Population / Generations", fmt.Sprintf("%d / %d", settings.PopulationSize, settings.Generations)},
		{"Seed", fmt.Sprintf("%d", settings.Seed)},
		{"Tool Diameter", fmt.Sprintf("%.1f mm", settings.ToolDiameter)},
		{"Cut Depth", fmt.Sprintf("%.1f mm", settings.CutDepth)},
		{"Pass Depth", fmt.Sprintf("%.1f mm", settings.PassDepth)},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by NestCut - irregular part nesting", "", 0, "C", false, 0, "")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
