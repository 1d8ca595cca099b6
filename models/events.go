package models

import "time"

const (
	EventBookingCreated = "booking.created"
	EventBookingPaid    = "booking.paid"
)

// BookingEvent is published on the event bus whenever availability or
// payment state of a booking changes.
type BookingEvent struct {
	Type            string    `json:"type"`
	BookingID       string    `json:"bookingId"`
	AppointmentDate string    `json:"appointmentDate"`
	TreatmentName   string    `json:"treatmentName"`
	Slot            string    `json:"slot"`
	At              time.Time `json:"at"`
}

func NewBookingEvent(kind string, b Booking) BookingEvent {
	return BookingEvent{
		Type:            kind,
		BookingID:       b.ID.Hex(),
		AppointmentDate: b.AppointmentDate,
		TreatmentName:   b.TreatmentName,
		Slot:            b.Slot,
		At:              time.Now().UTC(),
	}
}
