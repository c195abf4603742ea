package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"membership-portal/models"
)

// CSV file names, one per payment category.
const (
	standardCSVFile = "payments.csv"
	sponsorCSVFile  = "advertiser_payments.csv"
)

var standardCSVHeader = []string{
	"id", "order_id", "amount", "currency", "status",
	"email", "contact", "method", "notes", "created_at",
}

var sponsorCSVHeader = []string{
	"id", "order_id", "amount", "currency", "status",
	"email", "contact", "method", "advertiserId", "plan", "created_at",
}

// CSVWriter appends payment rows to the flat export files. The header
// is written exactly once per file, decided by file existence rather
// than in-memory state since the process may restart between appends.
// Rows are flushed before Append returns.
type CSVWriter struct {
	dir string
	mu  sync.Mutex
}

// NewCSVWriter writes exports under dir.
func NewCSVWriter(dir string) *CSVWriter {
	if dir == "" {
		dir = "."
	}
	return &CSVWriter{dir: dir}
}

// Append writes one row for the record to the file of its category.
func (w *CSVWriter) Append(rec *models.PaymentRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := standardCSVFile
	header := standardCSVHeader
	if rec.Category == models.CategorySponsor {
		name = sponsorCSVFile
		header = sponsorCSVHeader
	}
	path := filepath.Join(w.dir, name)

	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("error writing header to %s: %w", name, err)
		}
	}
	if err := cw.Write(row(rec)); err != nil {
		return fmt.Errorf("error writing row to %s: %w", name, err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("error flushing %s: %w", name, err)
	}
	return nil
}

func row(rec *models.PaymentRecord) []string {
	amount := fmt.Sprintf("%.2f", rec.Amount)
	created := rec.CreatedAt.UTC().Format(time.RFC3339)

	if rec.Category == models.CategorySponsor {
		return []string{
			rec.PaymentID, rec.OrderID, amount, rec.Currency, rec.Status,
			rec.Contact.Email, rec.Contact.Phone, rec.Method,
			rec.AdvertiserID(), rec.Plan(), created,
		}
	}

	notesJSON, err := json.Marshal(rec.Notes)
	if err != nil {
		notesJSON = []byte("{}")
	}
	return []string{
		rec.PaymentID, rec.OrderID, amount, rec.Currency, rec.Status,
		rec.Contact.Email, rec.Contact.Phone, rec.Method,
		string(notesJSON), created,
	}
}
