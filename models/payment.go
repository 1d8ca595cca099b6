package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is a confirmed gateway payment linked to a booking.
type Payment struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	AppointmentID string             `json:"appointmentId" bson:"appointmentId" validate:"required,hexadecimal,len=24"`
	Email         string             `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Amount        float64            `json:"price" bson:"price" validate:"gte=0"`
	Currency      string             `json:"currency,omitempty" bson:"currency"`
	TransactionID string             `json:"transactionId" bson:"transactionId" validate:"required"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// IdempotencyRecord stores the first response produced for an Idempotency-Key.
type IdempotencyRecord struct {
	Key         string    `bson:"key" json:"key"`
	Method      string    `bson:"method" json:"method"`
	Path        string    `bson:"path" json:"path"`
	RequestHash string    `bson:"request_hash" json:"request_hash"`
	Completed   bool      `bson:"completed" json:"completed"`
	Status      int       `bson:"status,omitempty" json:"status,omitempty"`
	Body        []byte    `bson:"body,omitempty" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
}
