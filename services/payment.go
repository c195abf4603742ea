package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"membership-portal/errors"
	"membership-portal/logger"
	"membership-portal/models"
)

// Currency is fixed per deployment; amounts arrive in rupees and are
// charged in paise.
const (
	Currency        = "INR"
	minorUnitsScale = 100
)

// OrderCreator is the slice of the Razorpay client the workflow needs.
// *razorpay.Client's Order service satisfies it.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentStore is the durable side of the workflow. Implementations
// must make UpsertPayment an atomic replace-by-key.
type PaymentStore interface {
	UpsertPayment(ctx context.Context, rec *models.PaymentRecord) error
	TryMarkExported(ctx context.Context, category, paymentID string) (bool, error)
	ListPayments(ctx context.Context, category string) ([]models.PaymentRecord, error)
	PlanCounts(ctx context.Context) (map[string]int, error)
}

// ReceiptMailer sends the payer a confirmation email. Best-effort.
type ReceiptMailer interface {
	SendReceipt(to string, rec models.PaymentRecord) error
}

// PaymentService is the payment intake workflow: it creates gateway
// orders, and turns completion notifications (client callback or
// webhook, whichever lands first) into exactly one durable record each.
type PaymentService struct {
	orders OrderCreator
	store  PaymentStore
	csv    *CSVWriter
	events *EventPublisher
	mailer ReceiptMailer
	log    *logger.Logger
}

// NewPaymentService wires the workflow. csv, events and mailer may be
// nil; those side channels are skipped.
func NewPaymentService(orders OrderCreator, store PaymentStore, csv *CSVWriter, events *EventPublisher, mailer ReceiptMailer, log *logger.Logger) *PaymentService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &PaymentService{
		orders: orders,
		store:  store,
		csv:    csv,
		events: events,
		mailer: mailer,
		log:    log,
	}
}

// CreateOrderRequest is the inbound order-creation form. Amount is in
// rupees. AdvertiserID and Plan are set only for advertising bookings.
type CreateOrderRequest struct {
	Amount       float64 `json:"amount"`
	AdvertiserID string  `json:"advertiserId"`
	Plan         string  `json:"plan"`
}

// CreateOrder converts the amount to paise and asks the gateway for an
// order. The receipt label embeds the category and creation time so
// orders stay distinguishable in the gateway dashboard. Repeated calls
// intentionally create distinct orders.
func (s *PaymentService) CreateOrder(req CreateOrderRequest) (*models.PaymentOrder, error) {
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, errors.E(errors.Invalid, "amount must be a positive number")
	}

	amountPaise := int64(math.Round(req.Amount * minorUnitsScale))

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": Currency,
		"receipt":  receipt,
	}

	var notes map[string]string
	if req.AdvertiserID != "" {
		receipt = fmt.Sprintf("adv_%s_%d", req.AdvertiserID, time.Now().UnixMilli())
		notes = map[string]string{"advertiserId": req.AdvertiserID, "plan": req.Plan}
		data["receipt"] = receipt
		data["notes"] = notes
	}

	resp, err := s.orders.Create(data, nil)
	if err != nil {
		return nil, errors.E(errors.Upstream, "error creating order", err)
	}

	orderID, _ := resp["id"].(string)
	if orderID == "" {
		return nil, errors.E(errors.Upstream, "gateway returned no order id")
	}

	order := &models.PaymentOrder{
		OrderID:  orderID,
		Amount:   amountPaise,
		Currency: Currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	s.publishAsync("order.created", orderID, map[string]interface{}{
		"event":    "order.created",
		"order_id": orderID,
		"amount":   amountPaise,
		"currency": Currency,
		"receipt":  receipt,
		"ts":       time.Now().UTC().Format(time.RFC3339),
	})

	s.log.Info("Order created: %s (amount %d paise, receipt %s)", orderID, amountPaise, receipt)
	return order, nil
}

// Notes tolerates the gateway's habit of sending an empty array when an
// order carried none, and stringifies numeric note values.
type Notes map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Notes) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		*n = Notes{}
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(b, &m); err == nil {
		*n = m
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m = make(map[string]string, len(raw))
	for k, v := range raw {
		m[k] = fmt.Sprint(v)
	}
	*n = m
	return nil
}

// CompletionPayload is a completion notification, from either the
// client-side checkout callback or the gateway webhook. Amount is in
// paise; CreatedAt is gateway unix seconds when present.
type CompletionPayload struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	Method    string  `json:"method"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Contact   string  `json:"contact"`
	Notes     Notes   `json:"notes"`
	CreatedAt int64   `json:"created_at"`
}

// RecordPayment normalizes the payload and upserts exactly one record
// for its payment id. Sponsor payments route to the sponsor collection
// and CSV, everything else to the standard pair; never both. The CSV
// append is best-effort and never masks a successful store write.
func (s *PaymentService) RecordPayment(ctx context.Context, payload CompletionPayload) (*models.PaymentRecord, error) {
	if strings.TrimSpace(payload.ID) == "" {
		return nil, errors.E(errors.Invalid, "payment id is required")
	}

	rec := normalizeRecord(payload)

	if err := s.store.UpsertPayment(ctx, rec); err != nil {
		return nil, errors.E(errors.Persistence, "error storing payment", err)
	}

	// The CSV is a derived report; the flag transition suppresses a
	// duplicate row when the webhook and the client callback both land.
	first, err := s.store.TryMarkExported(ctx, rec.Category, rec.PaymentID)
	if err != nil {
		s.log.Error("Error checking CSV export flag for %s: %v", rec.PaymentID, err)
	} else if first && s.csv != nil {
		if err := s.csv.Append(rec); err != nil {
			s.log.Error("CSV append failed for %s: %v", rec.PaymentID, err)
		}
	}

	s.publishAsync("payments", rec.PaymentID, map[string]interface{}{
		"event":      "payment.recorded",
		"payment_id": rec.PaymentID,
		"order_id":   rec.OrderID,
		"amount":     rec.Amount,
		"currency":   rec.Currency,
		"status":     rec.Status,
		"category":   rec.Category,
		"ts":         time.Now().UTC().Format(time.RFC3339),
	})

	if s.mailer != nil && rec.Status == models.StatusSuccess && rec.Contact.Email != "" {
		go func(to string, r models.PaymentRecord) {
			if err := s.mailer.SendReceipt(to, r); err != nil {
				s.log.Warn("Receipt email to %s failed: %v", to, err)
			}
		}(rec.Contact.Email, *rec)
	}

	s.log.Info("Payment recorded: %s (category %s, status %s)", rec.PaymentID, rec.Category, rec.Status)
	return rec, nil
}

// normalizeRecord shapes the payload into a PaymentRecord, defaulting
// every optional field to an empty value so downstream consumers never
// see missing keys.
func normalizeRecord(payload CompletionPayload) *models.PaymentRecord {
	notes := map[string]string(payload.Notes)
	if notes == nil {
		notes = map[string]string{}
	}

	category := models.CategoryStandard
	if notes["advertiserId"] != "" {
		category = models.CategorySponsor
	}

	status := models.StatusSuccess
	if payload.Status == "failed" {
		status = models.StatusFailed
	}

	currency := payload.Currency
	if currency == "" {
		currency = Currency
	}

	createdAt := time.Now().UTC()
	if payload.CreatedAt > 0 {
		createdAt = time.Unix(payload.CreatedAt, 0).UTC()
	}

	return &models.PaymentRecord{
		PaymentID: strings.TrimSpace(payload.ID),
		OrderID:   payload.OrderID,
		Amount:    payload.Amount / minorUnitsScale,
		Currency:  currency,
		Status:    status,
		Method:    payload.Method,
		Contact: models.Contact{
			Name:  payload.Name,
			Email: payload.Email,
			Phone: payload.Contact,
		},
		Category:  category,
		Notes:     notes,
		CreatedAt: createdAt,
	}
}

// BookingCounts tallies sponsor payments by advertising plan.
func (s *PaymentService) BookingCounts(ctx context.Context) (map[string]int, error) {
	counts, err := s.store.PlanCounts(ctx)
	if err != nil {
		return nil, errors.E(errors.Persistence, "error fetching booking counts", err)
	}
	return counts, nil
}

// Payments returns the stored records for one category.
func (s *PaymentService) Payments(ctx context.Context, category string) ([]models.PaymentRecord, error) {
	records, err := s.store.ListPayments(ctx, category)
	if err != nil {
		return nil, errors.E(errors.Persistence, "error listing payments", err)
	}
	return records, nil
}

func (s *PaymentService) publishAsync(topic, key string, evt map[string]interface{}) {
	if s.events == nil {
		return
	}
	go func() {
		if err := s.events.Publish(topic, key, evt); err != nil {
			s.log.Warn("Failed to publish %s event: %v", topic, err)
		}
	}()
}
