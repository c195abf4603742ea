package handlers

import (
	"net/http"

	"membership-portal/utils"
)

// VerifyRecaptcha proxies a client token to Google's siteverify API
// and returns the verdict.
func (h *Handler) VerifyRecaptcha(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.SendFailure(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Token == "" {
		utils.SendFailure(w, http.StatusBadRequest, "Missing reCAPTCHA token.")
		return
	}

	verdict, err := h.Recaptcha.Verify(r.Context(), req.Token)
	if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	utils.SendJSON(w, http.StatusOK, verdict)
}
