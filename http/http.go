package http

import (
	"net/http"

	"membership-portal/http/handlers"
	"membership-portal/http/middleware"
)

// SetupRoutes wires all HTTP routes onto a fresh mux. Every payment
// endpoint sits behind the CORS middleware so browser checkout pages
// on other origins can reach it.
func SetupRoutes(h *handlers.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", middleware.EnableCORS(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Backend server is running"))
	}))

	// Payment APIs
	mux.HandleFunc("/create-order", middleware.EnableCORS(h.CreateOrder))
	mux.HandleFunc("/store-payment", middleware.EnableCORS(h.StorePayment))
	mux.HandleFunc("/webhooks", middleware.EnableCORS(h.Webhook))
	mux.HandleFunc("/ad-bookings", middleware.EnableCORS(h.AdBookings))
	mux.HandleFunc("/export-payments", middleware.EnableCORS(h.ExportPayments))

	// Membership APIs
	mux.HandleFunc("/members", middleware.EnableCORS(h.GetMembers))
	mux.HandleFunc("/generate-certificate", middleware.EnableCORS(h.GenerateCertificate))

	// Form helpers
	mux.HandleFunc("/verify-recaptcha", middleware.EnableCORS(h.VerifyRecaptcha))

	return mux
}
