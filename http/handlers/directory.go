package handlers

import (
	"net/http"

	"membership-portal/models"
	"membership-portal/utils"
)

// GetMembers returns the flattened directory of live members.
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	members, err := h.Directory.ActiveMembers(r.Context())
	if err != nil {
		h.Log.Error("Failed to fetch members: %v", err)
		utils.SendJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch members"})
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string][]models.Member{"members": members})
}

// AdBookings tallies sponsor payments by advertising plan so the
// booking form can grey out sold-out slots.
func (h *Handler) AdBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	counts, err := h.Payments.BookingCounts(r.Context())
	if err != nil {
		h.Log.Error("Failed to fetch ad bookings: %v", err)
		utils.SendJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch ad bookings"})
		return
	}

	utils.SendJSON(w, http.StatusOK, counts)
}
