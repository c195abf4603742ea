package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"membership-portal/services"
	"membership-portal/utils"
)

// CreateOrder accepts {amount, advertiserId?, plan?} and returns the
// gateway order object for checkout.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req services.CreateOrderRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		utils.SendFailure(w, http.StatusBadRequest, "Invalid request")
		return
	}

	order, err := h.Payments.CreateOrder(req)
	if err != nil {
		h.fail(w, err, "Failed to create order")
		return
	}

	utils.SendJSON(w, http.StatusOK, order)
}

// StorePayment records a completion notification from the client-side
// checkout callback.
func (h *Handler) StorePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var payload services.CompletionPayload
	if err := utils.DecodeJSONRequest(r, &payload); err != nil {
		utils.SendFailure(w, http.StatusBadRequest, "Invalid data")
		return
	}

	if _, err := h.Payments.RecordPayment(r.Context(), payload); err != nil {
		h.fail(w, err, "Failed to store payment")
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment stored successfully",
	})
}

// Webhook receives Razorpay's asynchronous notifications. Completion
// events feed the same recording path as the client callback; anything
// else is acknowledged so the gateway stops redelivering it.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendFailure(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.SendFailure(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Razorpay-Signature")
	if h.WebhookSecret != "" && !services.VerifyWebhookSignature(body, signature, h.WebhookSecret) {
		h.Log.Warn("Webhook signature verification failed")
	}

	var payload services.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.SendFailure(w, http.StatusBadRequest, "Invalid payload format")
		return
	}

	h.Log.Info("Webhook received: %s", payload.Event)

	switch payload.Event {
	case services.EventPaymentCaptured, services.EventOrderPaid, services.EventPaymentFailed:
		completion, err := services.CompletionFromWebhook(payload)
		if err != nil {
			utils.SendFailure(w, http.StatusBadRequest, "Invalid payment data structure")
			return
		}
		if _, err := h.Payments.RecordPayment(r.Context(), completion); err != nil {
			h.fail(w, err, "Failed to process webhook")
			return
		}
		utils.SendJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"event":   payload.Event,
		})
	default:
		// Acknowledge unhandled events so the gateway stops retrying.
		utils.SendJSON(w, http.StatusOK, map[string]interface{}{
			"status": "acknowledged",
			"event":  payload.Event,
		})
	}
}
