package booking

import (
	"context"
	"fmt"

	"doctorsportal/db"
	"doctorsportal/models"

	"go.mongodb.org/mongo-driver/bson"
)

var defaultSlots = []string{
	"08.00 AM - 08.30 AM",
	"08.30 AM - 09.00 AM",
	"09.00 AM - 09.30 AM",
	"09.30 AM - 10.00 AM",
	"10.00 AM - 10.30 AM",
	"10.30 AM - 11.00 AM",
	"11.00 AM - 11.30 AM",
	"11.30 AM - 12.00 AM",
	"1.00 PM - 1.30 PM",
	"1.30 PM - 2.00 PM",
	"2.00 PM - 2.30 PM",
	"2.30 PM - 3.00 PM",
	"3.00 PM - 3.30 PM",
	"3.30 PM - 4.00 PM",
	"4.00 PM - 4.30 PM",
	"4.30 PM - 5.00 PM",
}

// DefaultOptions is the treatment catalogue a fresh portal starts with.
var DefaultOptions = []models.AppointmentOption{
	{Name: "Teeth Orthodontics", Price: 99, Slots: defaultSlots},
	{Name: "Cosmetic Dentistry", Price: 120, Slots: defaultSlots},
	{Name: "Teeth Cleaning", Price: 55, Slots: defaultSlots},
	{Name: "Cavity Protection", Price: 70, Slots: defaultSlots},
	{Name: "Pediatric Dental", Price: 65, Slots: defaultSlots},
	{Name: "Oral Surgery", Price: 150, Slots: defaultSlots},
}

// Seed upserts options by name and returns how many were newly created.
func Seed(ctx context.Context, store db.Store, options []models.AppointmentOption) (int, error) {
	created := 0
	for _, opt := range options {
		res, err := store.UpdateOne(ctx, db.AppointmentOptions,
			bson.M{"name": opt.Name},
			bson.M{"price": opt.Price, "slots": opt.Slots},
			true,
		)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", opt.Name, err)
		}
		created += int(res.UpsertedCount)
	}
	return created, nil
}
