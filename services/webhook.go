package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Webhook events that carry a payment entity worth recording.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"
)

// WebhookPayload is the Razorpay webhook envelope.
type WebhookPayload struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	CreatedAt int64                  `json:"created_at"`
	Contains  []string               `json:"contains"`
	Payload   map[string]interface{} `json:"payload"`
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header
// against an HMAC-SHA256 of the raw body.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))

	// Constant-time comparison
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CompletionFromWebhook pulls the payment entity out of the webhook
// envelope and shapes it like a client-side completion callback, so
// both paths converge on the same record.
func CompletionFromWebhook(p WebhookPayload) (CompletionPayload, error) {
	paymentMap, ok := p.Payload["payment"].(map[string]interface{})
	if !ok {
		return CompletionPayload{}, fmt.Errorf("webhook payload has no payment entity")
	}
	entity, ok := paymentMap["entity"].(map[string]interface{})
	if !ok {
		return CompletionPayload{}, fmt.Errorf("webhook payment has no entity")
	}

	out := CompletionPayload{
		ID:       str(entity["id"]),
		OrderID:  str(entity["order_id"]),
		Currency: str(entity["currency"]),
		Status:   str(entity["status"]),
		Method:   str(entity["method"]),
		Email:    str(entity["email"]),
		Contact:  str(entity["contact"]),
		Notes:    Notes{},
	}

	switch v := entity["amount"].(type) {
	case float64:
		out.Amount = v
	case int:
		out.Amount = float64(v)
	}

	switch v := entity["created_at"].(type) {
	case float64:
		out.CreatedAt = int64(v)
	}

	if notes, ok := entity["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			out.Notes[k] = fmt.Sprint(v)
		}
	}

	if p.Event == EventPaymentFailed {
		out.Status = "failed"
	}

	return out, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
