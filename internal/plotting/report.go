package plotting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phpdave11/gofpdf"

	"taxipulse/pkg/contracts/domain"
)

// ModelResult is one regression line of the run report
type ModelResult struct {
	Name    string
	MSE     float64
	R2      float64
	Weights int
}

// RunReport is the content of the PDF run summary
type RunReport struct {
	Summary          domain.RunSummary
	RouteTrips       int
	BoxCoxLambda     float64
	YeoJohnsonLambda float64
	Models           []ModelResult
	Figures          []string
}

// WriteRunReport renders report as an A4 PDF at path
func WriteRunReport(path string, report RunReport) error {
	s := report.Summary

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("taxipulse run %04d-%02d", s.Year, s.Month), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("Trip pipeline run %04d-%02d", s.Year, s.Month))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Run ID      : " + s.RunID,
		"Status      : " + string(s.Status),
		fmt.Sprintf("Fleets      : %v", s.Fleets),
		fmt.Sprintf("Rows loaded : %d", s.RowsLoaded),
		fmt.Sprintf("Rows kept   : %d", s.RowsRetained),
		fmt.Sprintf("From cache  : %t", s.FromCache),
		"Started     : " + s.StartedAt.Format(time.RFC3339),
		"Duration    : " + s.Duration().Round(time.Millisecond).String(),
	}
	if s.Error != "" {
		lines = append(lines, "Error       : "+s.Error)
	}
	for _, l := range lines {
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	sectionTitle(pdf, "Removed rows per stage")
	widths := []float64{50, 30, 30, 30, 40}
	tableRow(pdf, widths, true, "stage", "rows in", "rows out", "removed", "% removed")
	for _, st := range s.Stages {
		tableRow(pdf, widths, false,
			st.Stage,
			fmt.Sprintf("%d", st.RowsIn),
			fmt.Sprintf("%d", st.RowsOut),
			fmt.Sprintf("%d", st.Removed()),
			fmt.Sprintf("%.4f", st.PercentRemoved()))
	}
	pdf.Ln(6)

	if len(report.Models) > 0 {
		sectionTitle(pdf, "Regression")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf(
			"%d route trips. Box-Cox lambda %.2f on the duration, Yeo-Johnson lambda %.4f on the cube root of the day of month.",
			report.RouteTrips, report.BoxCoxLambda, report.YeoJohnsonLambda), "", "", false)
		pdf.Ln(2)

		mw := []float64{60, 40, 40, 30}
		tableRow(pdf, mw, true, "model", "MSE", "r2", "weights")
		for _, m := range report.Models {
			tableRow(pdf, mw, false,
				m.Name,
				fmt.Sprintf("%.6f", m.MSE),
				fmt.Sprintf("%.6f", m.R2),
				fmt.Sprintf("%d", m.Weights))
		}
		pdf.Ln(6)
	}

	if len(report.Figures) > 0 {
		sectionTitle(pdf, "Figures")
		pdf.SetFont("Helvetica", "", 10)
		for _, f := range report.Figures {
			pdf.Cell(0, 5, filepath.Base(f))
			pdf.Ln(5)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
}

func tableRow(pdf *gofpdf.Fpdf, widths []float64, header bool, cells ...string) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 10)
	for i, c := range cells {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 6, c, "1", 0, align, header, 0, "")
	}
	pdf.Ln(-1)
}
