package booking

import (
	"bytes"
	"context"
	"fmt"

	"doctorsportal/apperr"
	"doctorsportal/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Receipt renders a PDF receipt for a booking owned by caller.
func (s *Service) Receipt(ctx context.Context, caller string, id primitive.ObjectID) ([]byte, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("booking not found")
	}
	if b.PatientEmail != caller {
		return nil, apperr.Forbidden("forbidden access")
	}
	return RenderReceipt(*b)
}

// RenderReceipt lays out booking details with a QR code of the booking id.
func RenderReceipt(b models.Booking) ([]byte, error) {
	qrPNG, err := qrcode.Encode(b.ID.Hex(), qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Internal("failed to generate QR code", err)
	}

	status := "Unpaid"
	if b.Paid {
		status = "Paid"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Appointment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	rows := [][2]string{
		{"Booking", b.ID.Hex()},
		{"Patient", b.PatientName},
		{"Email", b.PatientEmail},
		{"Treatment", b.TreatmentName},
		{"Date", b.AppointmentDate},
		{"Slot", b.Slot},
		{"Price", fmt.Sprintf("$%.2f", b.Price)},
		{"Status", status},
	}
	for _, row := range rows {
		pdf.Cell(0, 10, fmt.Sprintf("%s: %s", row[0], row[1]))
		pdf.Ln(8)
	}
	if b.PaymentID != "" {
		pdf.Cell(0, 10, "Transaction: "+b.PaymentID)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.Internal("failed to generate PDF", err)
	}
	return buf.Bytes(), nil
}
