package handlers

import (
	"fmt"
	"net/http"

	"membership-portal/models"
	"membership-portal/services"
	"membership-portal/utils"
)

// ExportPayments streams an xlsx report built from the store. The
// category query parameter selects the sponsor or standard collection.
func (h *Handler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	category := models.CategoryStandard
	if r.URL.Query().Get("category") == models.CategorySponsor {
		category = models.CategorySponsor
	}

	records, err := h.Payments.Payments(r.Context(), category)
	if err != nil {
		h.fail(w, err, "Failed to export payments")
		return
	}

	workbook, err := services.BuildPaymentsWorkbook(records, category)
	if err != nil {
		h.Log.Error("Failed to build payments workbook: %v", err)
		utils.SendFailure(w, http.StatusInternalServerError, "Failed to export payments")
		return
	}

	filename := fmt.Sprintf("%s_payments.xlsx", category)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := workbook.Write(w); err != nil {
		h.Log.Error("Failed to stream payments workbook: %v", err)
	}
}
