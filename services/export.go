package services

import (
	"encoding/json"
	"fmt"
	"time"

	"membership-portal/models"

	"github.com/xuri/excelize/v2"
)

// BuildPaymentsWorkbook renders stored payment records into a
// spreadsheet. The report is derived from the store on demand, so it
// never drifts from the records the way an append-only file can.
func BuildPaymentsWorkbook(records []models.PaymentRecord, category string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Payments"
	if category == models.CategorySponsor {
		sheet = "Advertiser Payments"
	}
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Payment ID", "Order ID", "Amount", "Currency", "Status", "Name", "Email", "Phone", "Method", "Notes", "Created At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("error naming header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("error writing header: %w", err)
		}
	}

	for rowIdx, rec := range records {
		notesJSON, err := json.Marshal(rec.Notes)
		if err != nil {
			notesJSON = []byte("{}")
		}
		values := []interface{}{
			rec.PaymentID, rec.OrderID, rec.Amount, rec.Currency, rec.Status,
			rec.Contact.Name, rec.Contact.Email, rec.Contact.Phone, rec.Method,
			string(notesJSON), rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("error naming cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("error writing row %d: %w", rowIdx+2, err)
			}
		}
	}

	return f, nil
}
