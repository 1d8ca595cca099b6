package pay

import (
	"context"
	"errors"
	"testing"

	"doctorsportal/apperr"
	"doctorsportal/db"
	"doctorsportal/models"
	"doctorsportal/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingPublisher struct {
	events []models.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.BookingEvent) error {
	p.events = append(p.events, evt)
	return nil
}

type failingGateway struct{}

func (failingGateway) CreatePaymentIntent(context.Context, float64, string) (string, error) {
	return "", apperr.External("payment provider rejected the request", errors.New("card_declined"))
}

func setup(t *testing.T) (*Service, *db.MemoryStore, *recordingPublisher, primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, db.EnsureIndexes(ctx, store))

	res, err := store.InsertOne(ctx, db.Bookings, models.Booking{
		PatientEmail:    "ann@example.com",
		PatientName:     "Ann",
		AppointmentDate: "Oct 15, 2026",
		TreatmentName:   "Teeth Cleaning",
		Slot:            "08.00",
		Price:           55,
	})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	return NewService(store, stripe.Stub{}, pub), store, pub, res.InsertedID
}

func TestCreateIntent(t *testing.T) {
	svc, _, _, _ := setup(t)

	secret, err := svc.CreateIntent(context.Background(), 55)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	for _, price := range []float64{0, -10, 0.001} {
		_, err = svc.CreateIntent(context.Background(), price)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "price %v", price)
	}

	failing := NewService(db.NewMemoryStore(), failingGateway{}, nil)
	_, err = failing.CreateIntent(context.Background(), 55)
	assert.True(t, apperr.Is(err, apperr.KindExternal))
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	svc, store, pub, bookingID := setup(t)

	res, err := svc.Record(ctx, models.Payment{
		AppointmentID: bookingID.Hex(),
		Email:         "ann@example.com",
		Amount:        55,
		TransactionID: "pi_123",
	})
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)

	var booking models.Booking
	require.NoError(t, store.FindOne(ctx, db.Bookings, bson.M{"_id": bookingID}, &booking))
	assert.True(t, booking.Paid)
	assert.Equal(t, "pi_123", booking.PaymentID)

	var payment models.Payment
	require.NoError(t, store.FindOne(ctx, db.Payments, bson.M{"transactionId": "pi_123"}, &payment))
	assert.Equal(t, "usd", payment.Currency)
	assert.False(t, payment.CreatedAt.IsZero())

	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventBookingPaid, pub.events[0].Type)
	assert.Equal(t, "Oct 15, 2026", pub.events[0].AppointmentDate)

	_, err = svc.Record(ctx, models.Payment{AppointmentID: bookingID.Hex(), TransactionID: "pi_123"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRecord_MissingBookingStoresNothing(t *testing.T) {
	ctx := context.Background()
	svc, store, pub, _ := setup(t)

	_, err := svc.Record(ctx, models.Payment{
		AppointmentID: primitive.NewObjectID().Hex(),
		TransactionID: "pi_orphan",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	var payments []models.Payment
	require.NoError(t, store.Find(ctx, db.Payments, bson.M{}, &payments))
	assert.Empty(t, payments)
	assert.Empty(t, pub.events)
}

func TestRecord_Validation(t *testing.T) {
	svc, _, _, bookingID := setup(t)

	cases := map[string]models.Payment{
		"bad id":         {AppointmentID: "xyz", TransactionID: "pi_1"},
		"no transaction": {AppointmentID: bookingID.Hex()},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), p)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}
