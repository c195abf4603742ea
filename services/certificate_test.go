package services

import (
	"bytes"
	"testing"
)

func TestGenerateCertificate(t *testing.T) {
	pdf, err := GenerateCertificate("Dr. Asha Rao", "Annual Conference 2026")
	if err != nil {
		t.Fatalf("GenerateCertificate: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("empty PDF output")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", pdf[:8])
	}
}
