package routes

import (
	"doctorsportal/middleware"

	"github.com/julienschmidt/httprouter"
)

func AddBookingRoutes(router *httprouter.Router, d Deps, authn middleware.Gate) {
	router.GET("/appointmentOptions", d.Bookings.GetAppointmentOptions)
	router.GET("/ws/appointmentOptions", d.Hub.HandleWS)

	router.POST("/bookings",
		middleware.Chain(d.RateLimiter.Limit)(
			middleware.Guard(d.Idempotency.WrapGuarded(d.Bookings.CreateBooking), authn),
		),
	)
	router.GET("/patientAppointments", middleware.Guard(d.Bookings.GetPatientAppointments, authn))
	router.GET("/appointment/:id", d.Bookings.GetAppointment)
	router.GET("/appointment/:id/receipt", middleware.Guard(d.Bookings.GetReceipt, authn))
}
