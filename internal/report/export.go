package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/seo-audit/auditor/internal/audit"
)

// ExportFormat defines the export file format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
)

// Columns of the flat issue table used by CSV and XLSX exports.
var issueColumns = []string{"URL", "Code", "Category", "Severity", "Message"}

// ExportOptions defines export configuration.
type ExportOptions struct {
	Format    ExportFormat
	FilePath  string
	MaxRows   int  // 0 = unlimited
	Delimiter rune // For CSV, default is comma
}

// DefaultExportOptions returns default export options.
func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		Format:    FormatCSV,
		MaxRows:   0,
		Delimiter: ',',
	}
}

// Exporter writes audit reports to files.
type Exporter struct {
	options *ExportOptions
}

// NewExporter creates a new exporter.
func NewExporter(options *ExportOptions) *Exporter {
	if options == nil {
		options = DefaultExportOptions()
	}
	return &Exporter{options: options}
}

// Export writes the report in the configured format.
func (e *Exporter) Export(result *audit.Result) error {
	switch e.options.Format {
	case FormatCSV:
		return e.exportCSV(result)
	case FormatXLSX:
		return e.exportXLSX(result)
	case FormatJSON:
		return e.exportJSON(result)
	default:
		return fmt.Errorf("unsupported export format: %s", e.options.Format)
	}
}

// exportCSV writes the flat issue table as CSV.
func (e *Exporter) exportCSV(result *audit.Result) error {
	file, err := os.Create(e.options.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Write UTF-8 BOM for Excel compatibility
	file.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(file)
	if e.options.Delimiter != 0 {
		writer.Comma = e.options.Delimiter
	}
	defer writer.Flush()

	if err := writer.Write(issueColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowCount := 0
	for _, issue := range AllIssues(result) {
		if e.options.MaxRows > 0 && rowCount >= e.options.MaxRows {
			break
		}
		if err := writer.Write(issueRow(issue)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		rowCount++
	}

	return nil
}

// exportXLSX writes an Excel workbook with an issue sheet, a page sheet,
// and a metadata sheet.
func (e *Exporter) exportXLSX(result *audit.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Issues"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Delete default sheet
	f.DeleteSheet("Sheet1")

	// Style for header
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00C853"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Style for alternating rows
	evenRowStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F5F5F5"}},
	})

	for i, col := range issueColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Message and URL columns need more room than their header length
	colWidths := []float64{45, 25, 15, 15, 50}
	for i := range issueColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, colWidths[i])
	}

	issues := AllIssues(result)
	rowCount := 0
	for rowIdx, issue := range issues {
		if e.options.MaxRows > 0 && rowCount >= e.options.MaxRows {
			break
		}

		for i, value := range issueRow(issue) {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)

			// Apply alternating row style
			if rowIdx%2 == 1 {
				f.SetCellStyle(sheetName, cell, cell, evenRowStyle)
			}
		}
		rowCount++
	}

	// Add filters
	lastCol, _ := excelize.ColumnNumberToName(len(issueColumns))
	filterRange := fmt.Sprintf("%s!A1:%s%d", sheetName, lastCol, rowCount+1)
	f.AutoFilter(sheetName, filterRange, nil)

	// Freeze header row
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	e.addPagesSheet(f, result, headerStyle)
	e.addMetadataSheet(f, result)

	return f.SaveAs(e.options.FilePath)
}

// addPagesSheet lists every crawled page with its status and score.
func (e *Exporter) addPagesSheet(f *excelize.File, result *audit.Result, headerStyle int) {
	sheetName := "Pages"
	f.NewSheet(sheetName)

	headers := []string{"URL", "Status", "Score", "Issues"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, page := range result.Pages {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), page.URL)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), page.StatusKey)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), page.Score)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), len(page.Issues))
	}

	f.SetColWidth(sheetName, "A", "A", 45)
	f.SetColWidth(sheetName, "B", "D", 12)
}

// addMetadataSheet adds a metadata sheet to the Excel file.
func (e *Exporter) addMetadataSheet(f *excelize.File, result *audit.Result) {
	sheetName := "Metadata"
	f.NewSheet(sheetName)

	metadata := [][]string{
		{"Base URL", result.BaseURL},
		{"Crawled Pages", strconv.Itoa(len(result.Pages))},
		{"Average Score", fmt.Sprintf("%.2f", result.AverageScore)},
		{"Total Issues", strconv.Itoa(result.TotalIssues)},
		{"Execution Time", fmt.Sprintf("%.2fs", result.ExecutionTime)},
		{"Generated", time.Now().Format(time.RFC3339)},
		{"Tool", "SEO Audit Engine"},
	}

	for i, row := range metadata {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+1), row[1])
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 50)
}

// exportJSON writes the full report document as indented JSON.
func (e *Exporter) exportJSON(result *audit.Result) error {
	file, err := os.Create(e.options.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(Build(result))
}

// issueRow flattens an issue into export columns.
func issueRow(issue audit.Issue) []string {
	return []string{
		issue.URL,
		issue.Code,
		string(issue.Category),
		strings.ToUpper(string(issue.Severity)[:1]) + string(issue.Severity)[1:],
		issue.Message,
	}
}
