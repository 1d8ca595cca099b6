package pay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctorsportal/apperr"
	"doctorsportal/db"
	"doctorsportal/logger"
	"doctorsportal/models"
	"doctorsportal/stripe"
	"doctorsportal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultCurrency = "usd"

// Publisher receives booking events. mq.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, evt models.BookingEvent) error
}

type Service struct {
	store   db.Store
	gateway stripe.IntentCreator
	events  Publisher
}

// NewService wires payment operations. events may be nil.
func NewService(store db.Store, gateway stripe.IntentCreator, events Publisher) *Service {
	return &Service{store: store, gateway: gateway, events: events}
}

// CreateIntent asks the gateway for a card payment intent of price dollars
// and returns its client secret.
func (s *Service) CreateIntent(ctx context.Context, price float64) (string, error) {
	if stripe.MinorUnits(price) <= 0 {
		return "", apperr.Validation("price must be greater than zero")
	}
	return s.gateway.CreatePaymentIntent(ctx, price, defaultCurrency)
}

// Record stores a confirmed payment and marks its booking paid. Both writes
// happen in one transaction; nothing is stored when the booking is missing.
func (s *Service) Record(ctx context.Context, p models.Payment) (db.InsertResult, error) {
	if err := utils.Validate(p); err != nil {
		return db.InsertResult{}, err
	}
	bookingID, err := utils.ParseObjectID("appointmentId", p.AppointmentID)
	if err != nil {
		return db.InsertResult{}, err
	}

	p.ID = primitive.NilObjectID
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	p.CreatedAt = time.Now().UTC()

	var (
		res     db.InsertResult
		booking models.Booking
	)
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		err := s.store.FindOne(ctx, db.Bookings, bson.M{"_id": bookingID}, &booking)
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound("booking not found")
		}
		if err != nil {
			return fmt.Errorf("find booking: %w", err)
		}

		res, err = s.store.InsertOne(ctx, db.Payments, p)
		if errors.Is(err, db.ErrDuplicateKey) {
			return apperr.Conflict("payment already recorded")
		}
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		_, err = s.store.UpdateOne(ctx, db.Bookings,
			bson.M{"_id": bookingID},
			bson.M{"paid": true, "paymentId": p.TransactionID},
			false,
		)
		if err != nil {
			return fmt.Errorf("mark booking paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.InsertResult{}, err
	}

	booking.Paid = true
	booking.PaymentID = p.TransactionID
	s.publish(ctx, models.NewBookingEvent(models.EventBookingPaid, booking))
	return res, nil
}

func (s *Service) publish(ctx context.Context, evt models.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("event", evt.Type).Msg("publish booking event")
	}
}
