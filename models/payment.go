package models

import "time"

// Payment categories. Sponsor payments come from advertising-slot
// purchases and are stored and reported separately.
const (
	CategoryStandard = "standard"
	CategorySponsor  = "sponsor"
)

// Payment outcomes as reported by the gateway or client callback.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PaymentOrder is a gateway-side order created before checkout.
// Amount is in minor currency units (paise).
type PaymentOrder struct {
	OrderID  string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Contact is the payer's contact block from the originating form.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PaymentRecord is the durable record of one completed (or failed)
// payment, keyed by the gateway-assigned payment id. Amount is in
// major currency units (rupees).
type PaymentRecord struct {
	PaymentID string            `json:"id"`
	OrderID   string            `json:"order_id"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	Method    string            `json:"method"`
	Contact   Contact           `json:"contact"`
	Category  string            `json:"category"`
	Notes     map[string]string `json:"notes"`
	CreatedAt time.Time         `json:"created_at"`
}

// AdvertiserID returns the advertiser marker from the notes, empty for
// standard registrations.
func (r *PaymentRecord) AdvertiserID() string {
	return r.Notes["advertiserId"]
}

// Plan returns the advertising plan name from the notes, if any.
func (r *PaymentRecord) Plan() string {
	return r.Notes["plan"]
}
