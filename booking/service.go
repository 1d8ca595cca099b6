package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"doctorsportal/apperr"
	"doctorsportal/db"
	"doctorsportal/logger"
	"doctorsportal/models"
	"doctorsportal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publisher receives booking events. mq.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, evt models.BookingEvent) error
}

type Service struct {
	store  db.Store
	events Publisher
}

// NewService wires the booking operations. events may be nil.
func NewService(store db.Store, events Publisher) *Service {
	return &Service{store: store, events: events}
}

// CreateResult is the acknowledgement returned for POST /bookings.
type CreateResult struct {
	Acknowledged bool                `json:"acknowledged"`
	Message      string              `json:"message,omitempty"`
	InsertedID   *primitive.ObjectID `json:"insertedId,omitempty"`
}

func alreadyBooked(b models.Booking) CreateResult {
	return CreateResult{
		Acknowledged: false,
		Message:      fmt.Sprintf("%s already booked for %s", b.TreatmentName, b.AppointmentDate),
	}
}

// Create stores b unless the patient already holds a booking for the same
// treatment on the same date. New bookings always start unpaid.
func (s *Service) Create(ctx context.Context, b models.Booking) (CreateResult, error) {
	if err := utils.Validate(b); err != nil {
		return CreateResult{}, err
	}

	dup := bson.M{
		"patientEmail":    b.PatientEmail,
		"appointmentDate": b.AppointmentDate,
		"treatmentName":   b.TreatmentName,
	}
	var existing models.Booking
	err := s.store.FindOne(ctx, db.Bookings, dup, &existing)
	if err == nil {
		return alreadyBooked(b), nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return CreateResult{}, fmt.Errorf("check existing booking: %w", err)
	}

	b.ID = primitive.NilObjectID
	b.Paid = false
	b.PaymentID = ""

	res, err := s.store.InsertOne(ctx, db.Bookings, b)
	if errors.Is(err, db.ErrDuplicateKey) {
		return alreadyBooked(b), nil
	}
	if err != nil {
		return CreateResult{}, fmt.Errorf("insert booking: %w", err)
	}

	b.ID = res.InsertedID
	s.publish(ctx, models.NewBookingEvent(models.EventBookingCreated, b))

	id := res.InsertedID
	return CreateResult{Acknowledged: res.Acknowledged, InsertedID: &id}, nil
}

func (s *Service) publish(ctx context.Context, evt models.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("event", evt.Type).Msg("publish booking event")
	}
}

// GetByID returns nil when no booking has id.
func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	err := s.store.FindOne(ctx, db.Bookings, bson.M{"_id": id}, &b)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id.Hex(), err)
	}
	return &b, nil
}

// PatientAppointments returns the caller's bookings newest first, and those
// on date. Callers may only read their own bookings.
func (s *Service) PatientAppointments(ctx context.Context, caller, email, date string) ([2][]models.Booking, error) {
	var out [2][]models.Booking
	if caller != email {
		return out, apperr.Forbidden("forbidden access")
	}

	all := []models.Booking{}
	if err := s.store.Find(ctx, db.Bookings, bson.M{"patientEmail": email}, &all); err != nil {
		return out, fmt.Errorf("load bookings for %s: %w", email, err)
	}
	slices.Reverse(all)

	onDate := []models.Booking{}
	if date != "" {
		filter := bson.M{"patientEmail": email, "appointmentDate": date}
		if err := s.store.Find(ctx, db.Bookings, filter, &onDate); err != nil {
			return out, fmt.Errorf("load bookings for %s on %s: %w", email, date, err)
		}
	}

	out[0], out[1] = nonNil(all), nonNil(onDate)
	return out, nil
}

func nonNil(bs []models.Booking) []models.Booking {
	if bs == nil {
		return []models.Booking{}
	}
	return bs
}
