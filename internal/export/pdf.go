package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/go-pdf/fpdf"
)

// ReportFileName is the download name used for PDF reports.
const ReportFileName = "water_quality_report.pdf"

type rgb struct{ r, g, b int }

var (
	accent   = rgb{37, 99, 235}
	muted    = rgb{100, 116, 139}
	stripe   = rgb{241, 245, 249}
	black    = rgb{0, 0, 0}
	white    = rgb{255, 255, 255}
	rowH     = 8.0
	pageSide = 14.0
)

// WritePDF renders the analysis report for v. Form verdicts get a
// PARAMETER/VALUE table of the submitted readings; dataset verdicts get one
// row per scored record on a landscape page.
func WritePDF(w io.Writer, v domain.Verdict, generatedAt time.Time) error {
	orientation := "P"
	if v.Form == nil {
		orientation = "L"
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle("Water Quality Analysis Report", false)
	pdf.SetMargins(pageSide, 10, pageSide)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, black)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "L", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 20)
	setText(pdf, accent)
	pdf.CellFormat(pageW-2*pageSide, 12, "Water Quality Analysis Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, muted)
	pdf.CellFormat(0, 6, "Generated on: "+generatedAt.Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 16)
	setText(pdf, black)
	pdf.CellFormat(36, 8, "Prediction:", "", 0, "L", false, 0, "")
	setText(pdf, accent)
	pdf.CellFormat(0, 8, string(v.Classification), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	setText(pdf, black)
	pdf.CellFormat(0, 6, fmt.Sprintf("Score: %.2f / %g", v.Score, domain.MaxScore), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 6, v.Classification.Advice(), "", "L", false)
	pdf.Ln(4)

	if v.Form != nil {
		formTable(pdf, *v.Form)
	} else {
		recordTable(pdf, v.Records, pageW-2*pageSide)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func formTable(pdf *fpdf.Fpdf, r domain.Record) {
	headerRow(pdf, []string{"PARAMETER", "VALUE"}, []float64{70, 60})
	for i, f := range domain.Schema() {
		fillRow(pdf, i)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(70, rowH, upperLabel(f), "", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(60, rowH, formatNumber(r.Value(f)), "", 1, "L", true, 0, "")
	}
}

func recordTable(pdf *fpdf.Fpdf, records []domain.ScoredRecord, width float64) {
	heads := make([]string, 0, len(domain.Schema())+2)
	for _, f := range domain.Schema() {
		heads = append(heads, upperLabel(f))
	}
	heads = append(heads, "SCORE", "CLASSIFICATION")

	col := width / float64(len(heads))
	widths := make([]float64, len(heads))
	for i := range widths {
		widths[i] = col
	}

	headerRow(pdf, heads, widths)
	pdf.SetFont("Helvetica", "", 9)
	for i, r := range records {
		if pdf.GetY()+rowH > pageBottom(pdf) {
			pdf.AddPage()
			headerRow(pdf, heads, widths)
			pdf.SetFont("Helvetica", "", 9)
		}
		fillRow(pdf, i)
		for j, v := range r.Values() {
			pdf.CellFormat(widths[j], rowH, formatNumber(v), "", 0, "C", true, 0, "")
		}
		pdf.CellFormat(col, rowH, fmt.Sprintf("%.2f", r.Score), "", 0, "C", true, 0, "")
		pdf.CellFormat(col, rowH, string(r.Classification), "", 1, "C", true, 0, "")
	}
}

func headerRow(pdf *fpdf.Fpdf, heads []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(accent.r, accent.g, accent.b)
	setText(pdf, white)
	for i, h := range heads {
		ln := 0
		if i == len(heads)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], rowH, h, "", ln, "C", true, 0, "")
	}
	setText(pdf, black)
}

func fillRow(pdf *fpdf.Fpdf, i int) {
	if i%2 == 1 {
		pdf.SetFillColor(stripe.r, stripe.g, stripe.b)
		return
	}
	pdf.SetFillColor(white.r, white.g, white.b)
}

func pageBottom(pdf *fpdf.Fpdf) float64 {
	_, h := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	return h - bottom - 15
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func upperLabel(f domain.Field) string {
	return strings.ToUpper(strings.ReplaceAll(string(f), "_", " "))
}
