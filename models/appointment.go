package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AppointmentOption is a treatment template with its full-day slot list.
type AppointmentOption struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name  string             `json:"name" bson:"name"`
	Price float64            `json:"price" bson:"price"`
	Slots []string           `json:"slots" bson:"slots"`
}

// Specialty is the name-only projection of an AppointmentOption.
type Specialty struct {
	Name string `json:"name" bson:"name"`
}

type Booking struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PatientEmail    string             `json:"patientEmail" bson:"patientEmail" validate:"required,email"`
	PatientName     string             `json:"patientName" bson:"patientName" validate:"required"`
	Phone           string             `json:"phone,omitempty" bson:"phone,omitempty"`
	AppointmentDate string             `json:"appointmentDate" bson:"appointmentDate" validate:"required"`
	TreatmentName   string             `json:"treatmentName" bson:"treatmentName" validate:"required"`
	Slot            string             `json:"slot" bson:"slot" validate:"required"`
	Price           float64            `json:"price" bson:"price" validate:"gte=0"`
	Paid            bool               `json:"paid" bson:"paid"`
	PaymentID       string             `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
}
