package booking

import (
	"context"
	"fmt"

	"doctorsportal/db"
	"doctorsportal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// RemainingSlots removes from each option the slots already booked for that
// treatment. Slot order is preserved and options are returned as copies.
func RemainingSlots(options []models.AppointmentOption, bookings []models.Booking) []models.AppointmentOption {
	booked := make(map[string]map[string]bool)
	for _, b := range bookings {
		if booked[b.TreatmentName] == nil {
			booked[b.TreatmentName] = make(map[string]bool)
		}
		booked[b.TreatmentName][b.Slot] = true
	}

	out := make([]models.AppointmentOption, 0, len(options))
	for _, opt := range options {
		taken := booked[opt.Name]
		slots := make([]string, 0, len(opt.Slots))
		for _, s := range opt.Slots {
			if !taken[s] {
				slots = append(slots, s)
			}
		}
		opt.Slots = slots
		out = append(out, opt)
	}
	return out
}

// Availability returns every appointment option with the slots still free on
// date. An empty date skips the bookings lookup.
func (s *Service) Availability(ctx context.Context, date string) ([]models.AppointmentOption, error) {
	var options []models.AppointmentOption
	if err := s.store.Find(ctx, db.AppointmentOptions, bson.M{}, &options); err != nil {
		return nil, fmt.Errorf("load appointment options: %w", err)
	}

	var bookings []models.Booking
	if date != "" {
		if err := s.store.Find(ctx, db.Bookings, bson.M{"appointmentDate": date}, &bookings); err != nil {
			return nil, fmt.Errorf("load bookings for %s: %w", date, err)
		}
	}

	return RemainingSlots(options, bookings), nil
}
