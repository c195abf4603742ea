package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// GenerateCertificate renders a participation certificate PDF for the
// named registrant and returns the document bytes.
func GenerateCertificate(name, event string) ([]byte, error) {
	if event == "" {
		event = "Annual Conference"
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 30, "Certificate of Participation", "", 1, "C", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "This is to certify that", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 16, name, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("participated in the %s.", event), "", 1, "C", false, 0, "")

	pdf.Ln(16)
	pdf.SetFont("Arial", "I", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued on %s", time.Now().Format("02 January 2006")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating certificate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
