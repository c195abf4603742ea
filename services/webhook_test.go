package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"membership-portal/models"
)

func signBody(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"

	if !VerifyWebhookSignature(body, signBody(body, secret), secret) {
		t.Error("valid signature rejected")
	}
	if VerifyWebhookSignature(body, "deadbeef", secret) {
		t.Error("invalid signature accepted")
	}
	if VerifyWebhookSignature(body, signBody(body, secret), "") {
		t.Error("signature accepted with no secret configured")
	}
}

func TestCompletionFromWebhook(t *testing.T) {
	raw := `{
		"id": "evt_1",
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_w1",
					"order_id": "order_w1",
					"amount": 187000,
					"currency": "INR",
					"status": "captured",
					"method": "upi",
					"email": "payer@example.com",
					"contact": "+919876543210",
					"created_at": 1700000000,
					"notes": {"advertiserId": "adv_001", "plan": "Full Page"}
				}
			}
		}
	}`
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	completion, err := CompletionFromWebhook(payload)
	if err != nil {
		t.Fatalf("CompletionFromWebhook: %v", err)
	}
	if completion.ID != "pay_w1" || completion.OrderID != "order_w1" {
		t.Errorf("unexpected ids: %+v", completion)
	}
	if completion.Amount != 187000 {
		t.Errorf("amount = %v, want 187000", completion.Amount)
	}
	if completion.CreatedAt != 1700000000 {
		t.Errorf("created_at = %d, want 1700000000", completion.CreatedAt)
	}
	if completion.Notes["advertiserId"] != "adv_001" {
		t.Errorf("notes not carried: %v", completion.Notes)
	}

	rec := normalizeRecord(completion)
	if rec.Category != models.CategorySponsor {
		t.Errorf("expected sponsor category, got %s", rec.Category)
	}
	if rec.Status != models.StatusSuccess {
		t.Errorf("expected success status, got %s", rec.Status)
	}
}

func TestCompletionFromWebhookFailedEvent(t *testing.T) {
	payload := WebhookPayload{
		Event: EventPaymentFailed,
		Payload: map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":     "pay_bad",
					"status": "authorized",
				},
			},
		},
	}

	completion, err := CompletionFromWebhook(payload)
	if err != nil {
		t.Fatalf("CompletionFromWebhook: %v", err)
	}
	if completion.Status != "failed" {
		t.Errorf("failed event should force failed status, got %q", completion.Status)
	}
}

func TestCompletionFromWebhookMissingEntity(t *testing.T) {
	payload := WebhookPayload{
		Event:   EventPaymentCaptured,
		Payload: map[string]interface{}{"order": map[string]interface{}{}},
	}
	if _, err := CompletionFromWebhook(payload); err == nil {
		t.Error("expected error for missing payment entity")
	}
}
