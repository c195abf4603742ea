package handlers

import (
	"fmt"
	"net/http"

	"membership-portal/services"
	"membership-portal/utils"
)

// GenerateCertificate renders a participation certificate PDF for the
// named registrant and returns it as a download.
func (h *Handler) GenerateCertificate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Event string `json:"event"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.SendFailure(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := utils.ValidateName(req.Name); err != nil {
		utils.SendFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	pdf, err := services.GenerateCertificate(req.Name, req.Event)
	if err != nil {
		h.Log.Error("Certificate generation failed for %q: %v", req.Name, err)
		utils.SendFailure(w, http.StatusInternalServerError, "Failed to generate certificate")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "certificate.pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
