package routes

import (
	"fmt"
	"net/http"

	"doctorsportal/auth"
	"doctorsportal/booking"
	"doctorsportal/directory"
	"doctorsportal/middleware"
	"doctorsportal/pay"
	"doctorsportal/ratelim"

	"github.com/julienschmidt/httprouter"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Tokens      *auth.TokenService
	Bookings    *booking.Service
	Payments    *pay.Service
	Directory   *directory.Service
	Hub         *booking.Hub
	Idempotency *pay.Idempotency
	RateLimiter *ratelim.RateLimiter
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "Hospital server code start")
}

func NewRouter(d Deps) *httprouter.Router {
	router := httprouter.New()
	router.GET("/", Index)

	authn := middleware.Authenticated(d.Tokens)
	admin := middleware.RequireAdmin(d.Directory)

	AddBookingRoutes(router, d, authn)
	AddUserRoutes(router, d, authn, admin)
	AddPayRoutes(router, d)
	router.GET("/jwt", d.RateLimiter.Limit(d.Tokens.GetJWT))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not found"}`)
	})
	return router
}
