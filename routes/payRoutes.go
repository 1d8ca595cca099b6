package routes

import (
	"doctorsportal/middleware"

	"github.com/julienschmidt/httprouter"
)

// AddPayRoutes wires payment handlers to the router
func AddPayRoutes(router *httprouter.Router, d Deps) {
	router.POST("/create-payment-intent", d.RateLimiter.Limit(d.Payments.CreatePaymentIntent))

	router.POST("/payment",
		middleware.Chain(
			d.RateLimiter.Limit,
			d.Idempotency.Wrap,
		)(d.Payments.RecordPayment),
	)
}
