// Package importer reads part lists for nesting. DXF drawings supply
// irregular outlines with their holes and cut-outs; CSV and Excel sheets
// supply rectangular parts with a quantity. CSV input supports automatic
// delimiter detection, flexible column mapping, and case-insensitive header
// recognition.
//
// Every imported part receives a sequential ID starting at 1 that stays
// with it for the rest of a run.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/NestCut/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Parts    []model.Part
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced parts without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Parts) > 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
	Hole     int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":    {"label", "name", "part", "part name", "description", "desc", "piece", "item"},
	"width":    {"width", "w", "length", "len", "x"},
	"height":   {"height", "h", "depth", "d", "y"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
	"hole":     {"hole", "hole diameter", "hole dia", "bore", "drill"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Width: -1, Height: -1, Quantity: -1, Hole: -1}
	roles := map[string]*int{
		"label":    &mapping.Label,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"quantity": &mapping.Quantity,
		"hole":     &mapping.Hole,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if idx := roles[role]; *idx == -1 {
					*idx = i
				}
			}
		}
	}

	if !isHeader {
		// Positional: Label, Width, Height, Quantity, Hole
		return ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3, Hole: 4}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// partRow is one parsed part list row before quantity expansion.
type partRow struct {
	label    string
	width    float64
	height   float64
	quantity int
	hole     float64 // Diameter of a centered hole, 0 for none
}

// parseRow extracts a part row using the given column mapping.
// Returns the row, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, rowCount int) (partRow, string, string) {
	pr := partRow{label: getCell(row, mapping.Label)}
	if pr.label == "" {
		pr.label = fmt.Sprintf("Part %d", rowCount+1)
	}

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return partRow{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	width, err := strconv.ParseFloat(widthStr, 64)
	if err != nil {
		return partRow{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), ""
	}

	heightStr := getCell(row, mapping.Height)
	if heightStr == "" {
		return partRow{}, fmt.Sprintf("%s: Missing height value", rowLabel), ""
	}
	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return partRow{}, fmt.Sprintf("%s: Invalid height '%s'", rowLabel, heightStr), ""
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return partRow{}, fmt.Sprintf("%s: Missing quantity value", rowLabel), ""
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return partRow{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), ""
	}

	if width <= 0 || height <= 0 || qty <= 0 {
		return partRow{}, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel), ""
	}
	pr.width, pr.height, pr.quantity = width, height, qty

	var warning string
	if holeStr := getCell(row, mapping.Hole); holeStr != "" {
		hole, err := strconv.ParseFloat(holeStr, 64)
		switch {
		case err != nil:
			warning = fmt.Sprintf("%s: Invalid hole diameter '%s', ignoring", rowLabel, holeStr)
		case hole <= 0:
		case hole >= width || hole >= height:
			warning = fmt.Sprintf("%s: Hole diameter %.2f does not fit the part, ignoring", rowLabel, hole)
		default:
			pr.hole = hole
		}
	}

	return pr, "", warning
}

// parts expands the row into quantity parts with IDs starting at nextID.
func (s partRow) parts(nextID int) []model.Part {
	parts := make([]model.Part, 0, s.quantity)
	for i := 0; i < s.quantity; i++ {
		p := model.NewRectPart(nextID+i, s.label, s.width, s.height)
		if s.hole > 0 {
			p.Children = []model.ChildShape{
				model.NewCircle(model.Point2D{X: s.width / 2, Y: s.height / 2}, s.hole/2),
			}
		}
		parts = append(parts, p)
	}
	return parts
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports parts from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	parsed := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	parsed.Warnings = append(result.Warnings, parsed.Warnings...)
	return parsed
}

// ImportCSVFromReader imports parts from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports parts from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and expands each row into parts.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// A non-numeric width in the first row is an unrecognized header
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	rowCount := 0
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		pr, errMsg, warning := parseRow(row, mapping, rowLabel, rowCount)

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		rowCount++
		result.Parts = append(result.Parts, pr.parts(len(result.Parts)+1)...)
	}

	return result
}

// ImportFile dispatches on the file extension: .dxf, .csv, .xlsx.
// DXF outlines are taken from layers containing outlineLayer.
func ImportFile(path, outlineLayer string) ImportResult {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".dxf":
		return ImportDXF(path, outlineLayer)
	case ".csv", ".txt":
		return ImportCSV(path)
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type %q", ext)}}
	}
}
