package db

import (
	"context"
	"fmt"
)

type uniqueIndex struct {
	coll string
	name string
	keys []string
}

var uniqueIndexes = []uniqueIndex{
	{Bookings, "bookings_patient_date_treatment", []string{"patientEmail", "appointmentDate", "treatmentName"}},
	{Users, "users_email", []string{"email"}},
	{Payments, "payments_transaction", []string{"transactionId"}},
	{Idempotency, "idempotency_key", []string{"key"}},
}

// EnsureIndexes creates the unique indexes the services rely on to reject
// duplicate bookings, users, payments and idempotency keys.
func EnsureIndexes(ctx context.Context, s Store) error {
	for _, idx := range uniqueIndexes {
		if err := s.EnsureUnique(ctx, idx.coll, idx.name, idx.keys...); err != nil {
			return fmt.Errorf("ensure index %s: %w", idx.name, err)
		}
	}
	return nil
}

// TTLIndexer is implemented by stores that can expire documents server-side.
type TTLIndexer interface {
	EnsureTTL(ctx context.Context, coll, name, field string) error
}

// EnsureExpiry asks the store to drop idempotency records once expires_at
// passes. Stores without TTL support rely on the expiry check at read time.
func EnsureExpiry(ctx context.Context, s Store) error {
	ttl, ok := s.(TTLIndexer)
	if !ok {
		return nil
	}
	if err := ttl.EnsureTTL(ctx, Idempotency, "ttl_expires_at", "expires_at"); err != nil {
		return fmt.Errorf("ensure ttl index: %w", err)
	}
	return nil
}
