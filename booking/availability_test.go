package booking

import (
	"context"
	"testing"

	"doctorsportal/db"
	"doctorsportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingSlots(t *testing.T) {
	options := []models.AppointmentOption{
		{Name: "Teeth Cleaning", Slots: []string{"08.00", "08.30", "09.00"}},
		{Name: "Oral Surgery", Slots: []string{"08.00", "08.30"}},
	}
	bookings := []models.Booking{
		{TreatmentName: "Teeth Cleaning", Slot: "08.30"},
		{TreatmentName: "Cosmetic", Slot: "08.00"},
	}

	got := RemainingSlots(options, bookings)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"08.00", "09.00"}, got[0].Slots)
	assert.Equal(t, []string{"08.00", "08.30"}, got[1].Slots)
	// Inputs are left alone.
	assert.Equal(t, []string{"08.00", "08.30", "09.00"}, options[0].Slots)
}

func TestRemainingSlots_AllBooked(t *testing.T) {
	options := []models.AppointmentOption{{Name: "X", Slots: []string{"a"}}}
	got := RemainingSlots(options, []models.Booking{{TreatmentName: "X", Slot: "a"}})

	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Slots)
	assert.Empty(t, got[0].Slots)
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	svc := NewService(store, nil)

	_, err := store.InsertOne(ctx, db.AppointmentOptions, models.AppointmentOption{
		Name: "Teeth Cleaning", Price: 55, Slots: []string{"08.00", "08.30", "09.00"},
	})
	require.NoError(t, err)
	_, err = store.InsertOne(ctx, db.Bookings, models.Booking{
		PatientEmail: "ann@example.com", AppointmentDate: "Oct 15, 2026",
		TreatmentName: "Teeth Cleaning", Slot: "08.30",
	})
	require.NoError(t, err)

	got, err := svc.Availability(ctx, "Oct 15, 2026")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"08.00", "09.00"}, got[0].Slots)
	assert.Equal(t, 55.0, got[0].Price)

	for _, date := range []string{"", "Oct 16, 2026", "not a date"} {
		got, err = svc.Availability(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, []string{"08.00", "08.30", "09.00"}, got[0].Slots, "date %q", date)
	}
}

func TestAvailability_NoOptions(t *testing.T) {
	got, err := NewService(db.NewMemoryStore(), nil).Availability(context.Background(), "Oct 15, 2026")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
