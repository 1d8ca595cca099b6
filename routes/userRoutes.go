package routes

import (
	"doctorsportal/middleware"

	"github.com/julienschmidt/httprouter"
)

func AddUserRoutes(router *httprouter.Router, d Deps, authn, admin middleware.Gate) {
	router.POST("/user", d.RateLimiter.Limit(d.Directory.RegisterUser))
	router.GET("/users", middleware.Guard(d.Directory.GetUsers, authn, admin))
	router.DELETE("/user", middleware.Guard(d.Directory.RemoveUser, authn, admin))
	router.PUT("/users/makeAdmin/:id", middleware.Guard(d.Directory.MakeAdmin, authn, admin))
	router.GET("/users/checkIsAdmin/:email", d.Directory.CheckIsAdmin)

	router.GET("/specialties", d.Directory.GetSpecialties)

	router.POST("/doctor", middleware.Guard(d.Directory.AddDoctor, authn, admin))
	router.GET("/doctors", middleware.Guard(d.Directory.GetDoctors, authn, admin))
	router.DELETE("/doctor", middleware.Guard(d.Directory.RemoveDoctor, authn, admin))
}
