package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"membership-portal/models"

	"github.com/lib/pq"
)

// Store is the document-style persistence layer. Payment writes are
// keyed upserts so that redelivered completion notifications replace
// the existing row in one atomic statement.
type Store struct {
	conn *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// tableFor maps a payment category to its collection. Categories are a
// closed set; anything unknown falls back to the standard collection.
func tableFor(category string) string {
	if category == models.CategorySponsor {
		return "sponsor_payments"
	}
	return "payments"
}

// UpsertPayment writes the record into the collection for its category,
// replacing any previous row with the same payment id. csv_exported is
// deliberately left untouched on conflict so a redelivery cannot re-arm
// the CSV append.
func (s *Store) UpsertPayment(ctx context.Context, rec *models.PaymentRecord) error {
	notes := rec.Notes
	if notes == nil {
		notes = map[string]string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("error marshaling notes: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (payment_id, order_id, amount, currency, status, method, payer_name, email, contact, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (payment_id) DO UPDATE SET
			order_id = EXCLUDED.order_id,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			method = EXCLUDED.method,
			payer_name = EXCLUDED.payer_name,
			email = EXCLUDED.email,
			contact = EXCLUDED.contact,
			notes = EXCLUDED.notes,
			created_at = EXCLUDED.created_at`, tableFor(rec.Category))

	_, err = s.conn.ExecContext(ctx, query,
		rec.PaymentID, rec.OrderID, rec.Amount, rec.Currency, rec.Status, rec.Method,
		rec.Contact.Name, rec.Contact.Email, rec.Contact.Phone, notesJSON, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting payment %s: %w", rec.PaymentID, err)
	}
	return nil
}

// TryMarkExported flips the csv_exported flag for the payment and
// reports whether this call made the transition. A second notification
// for the same payment id gets false, which suppresses the duplicate
// CSV row.
func (s *Store) TryMarkExported(ctx context.Context, category, paymentID string) (bool, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET csv_exported = TRUE WHERE payment_id = $1 AND NOT csv_exported",
		tableFor(category))

	result, err := s.conn.ExecContext(ctx, query, paymentID)
	if err != nil {
		return false, fmt.Errorf("error marking payment %s exported: %w", paymentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListPayments returns every record in the collection for the category,
// newest first.
func (s *Store) ListPayments(ctx context.Context, category string) ([]models.PaymentRecord, error) {
	query := fmt.Sprintf(`
		SELECT payment_id, order_id, amount, currency, status, method, payer_name, email, contact, notes, created_at
		FROM %s ORDER BY created_at DESC`, tableFor(category))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	defer rows.Close()

	var records []models.PaymentRecord
	for rows.Next() {
		var rec models.PaymentRecord
		var notesJSON []byte
		err := rows.Scan(&rec.PaymentID, &rec.OrderID, &rec.Amount, &rec.Currency, &rec.Status, &rec.Method,
			&rec.Contact.Name, &rec.Contact.Email, &rec.Contact.Phone, &notesJSON, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning payment: %w", err)
		}
		rec.Category = category
		if rec.Category != models.CategorySponsor {
			rec.Category = models.CategoryStandard
		}
		if err := json.Unmarshal(notesJSON, &rec.Notes); err != nil {
			rec.Notes = map[string]string{}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PlanCounts tallies sponsor payments by their advertising plan.
func (s *Store) PlanCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT notes->>'plan', COUNT(*)
		FROM sponsor_payments
		WHERE COALESCE(notes->>'plan', '') <> ''
		GROUP BY notes->>'plan'`)
	if err != nil {
		return nil, fmt.Errorf("error counting plans: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var plan string
		var count int
		if err := rows.Scan(&plan, &count); err != nil {
			return nil, fmt.Errorf("error scanning plan count: %w", err)
		}
		counts[plan] = count
	}
	return counts, rows.Err()
}

// GetCachedMember looks up the member summary for a subscription.
// Entries older than ttl count as misses.
func (s *Store) GetCachedMember(ctx context.Context, subscriptionID string, ttl time.Duration) (*models.Member, bool, error) {
	var payload []byte
	var updatedAt time.Time
	err := s.conn.QueryRowContext(ctx,
		"SELECT payload, updated_at FROM members_cache WHERE subscription_id = $1",
		subscriptionID).Scan(&payload, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading members cache: %w", err)
	}
	if time.Since(updatedAt) > ttl {
		return nil, false, nil
	}

	var m models.Member
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, false, nil
	}
	return &m, true, nil
}

// PutCachedMember stores (or refreshes) the member summary for a
// subscription.
func (s *Store) PutCachedMember(ctx context.Context, subscriptionID string, m models.Member) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshaling member: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO members_cache (subscription_id, payload, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (subscription_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = CURRENT_TIMESTAMP`,
		subscriptionID, payload)
	if err != nil {
		return fmt.Errorf("error caching member %s: %w", subscriptionID, err)
	}
	return nil
}

// EvictCachedMembersExcept drops cache entries for subscriptions no
// longer present in the latest live list.
func (s *Store) EvictCachedMembersExcept(ctx context.Context, keep []string) error {
	var err error
	if len(keep) == 0 {
		_, err = s.conn.ExecContext(ctx, "DELETE FROM members_cache")
	} else {
		_, err = s.conn.ExecContext(ctx,
			"DELETE FROM members_cache WHERE subscription_id <> ALL($1)", pq.Array(keep))
	}
	if err != nil {
		return fmt.Errorf("error evicting members cache: %w", err)
	}
	return nil
}
