package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tourbook/auth"
	"tourbook/booking"
	"tourbook/countries"
	"tourbook/destinations"
	"tourbook/middleware"
	"tourbook/ratelim"
	"tourbook/reviews"
	"tourbook/tours"
	"tourbook/utils"
)

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Auth         *middleware.Auth
	Limiter      *ratelim.RateLimiter
	Users        *auth.Handler
	Tours        *tours.Handler
	Destinations *destinations.Handler
	Reviews      *reviews.Handler
	Bookings     *booking.Handler
	Countries    *countries.Handler
	UploadDir    string
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "status": "ok"})
}

// staticOr serves fixed words sharing the :id position (httprouter cannot register both)
// and sends everything else to byID.
func staticOr(static map[string]httprouter.Handle, byID httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if h, ok := static[ps.ByName("id")]; ok {
			h(w, r, ps)
			return
		}
		byID(w, r, ps)
	}
}

func NewRouter(h Handlers) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	AddAuthRoutes(router, h)
	AddTourRoutes(router, h)
	AddDestinationRoutes(router, h)
	AddReviewRoutes(router, h)
	AddBookingRoutes(router, h)
	AddCountryRoutes(router, h)
	AddStaticRoutes(router, h.UploadDir)

	return router
}

func AddAuthRoutes(router *httprouter.Router, h Handlers) {
	router.POST("/api/auth/register", h.Limiter.Limit(h.Users.Register))
	router.POST("/api/auth/login", h.Limiter.Limit(h.Users.Login))
	router.GET("/api/auth/me", h.Auth.Authenticate(h.Users.Me))
}

func AddTourRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/tours", h.Tours.GetAll)
	router.GET("/api/tours/:id", staticOr(map[string]httprouter.Handle{
		"top-5-cheap": tours.AliasTopCheap(h.Tours.GetAll),
		"stats":       h.Auth.Admin(h.Tours.Stats),
	}, h.Tours.GetTour))
	router.POST("/api/tours", h.Auth.Admin(h.Tours.Create))
	router.PUT("/api/tours/:id", h.Auth.Admin(h.Tours.Update))
	router.DELETE("/api/tours/:id", h.Auth.Admin(h.Tours.Delete))
	router.PUT("/api/tours/:id/images", h.Auth.Admin(h.Tours.UploadImages))
}

func AddDestinationRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/destinations", h.Destinations.GetAll)
	router.GET("/api/destinations/:id", staticOr(map[string]httprouter.Handle{
		"countries": h.Destinations.Countries,
	}, h.Destinations.GetDestination))
	router.POST("/api/destinations", h.Auth.Admin(h.Destinations.Create))
	router.PUT("/api/destinations/:id", h.Auth.Admin(h.Destinations.Update))
	router.DELETE("/api/destinations/:id", h.Auth.Admin(h.Destinations.Delete))
	router.PUT("/api/destinations/:id/images", h.Auth.Admin(h.Destinations.UploadImages))
}

func AddReviewRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/tours/:id/reviews", h.Reviews.GetForTour)
	router.POST("/api/tours/:id/reviews", middleware.Chain(
		h.Limiter.Limit,
		h.Auth.Authenticate,
	)(h.Reviews.Create))

	router.GET("/api/reviews", h.Reviews.GetAll)
	router.GET("/api/reviews/:id", h.Reviews.GetReview)
	router.PUT("/api/reviews/:id", h.Auth.Authenticate(h.Reviews.Update))
	router.DELETE("/api/reviews/:id", h.Auth.Authenticate(h.Reviews.Delete))
}

func AddBookingRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/bookings", h.Auth.Admin(h.Bookings.GetAll))
	router.GET("/api/bookings/:id", staticOr(map[string]httprouter.Handle{
		"my-bookings": h.Auth.Authenticate(h.Bookings.MyBookings),
	}, h.Auth.Authenticate(h.Bookings.GetBooking)))
	router.GET("/api/bookings/:id/invoice", h.Auth.Authenticate(h.Bookings.Invoice))
	router.GET("/api/bookings/:id/updates", h.Auth.Authenticate(h.Bookings.Updates))

	router.POST("/api/bookings", h.Auth.Authenticate(h.Bookings.Create))
	router.POST("/api/bookings/guest", h.Limiter.Limit(h.Auth.OptionalAuth(h.Bookings.CreateGuest)))
	router.PUT("/api/bookings/:id", h.Auth.Admin(h.Bookings.UpdateStatus))
	router.PUT("/api/bookings/:id/cancel", h.Auth.Authenticate(h.Bookings.Cancel))
}

func AddCountryRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/countries", h.Countries.GetAll)
	router.GET("/api/countries/:id", h.Countries.GetCountry)
	router.POST("/api/countries", h.Countries.Create)
	router.PATCH("/api/countries/:id", h.Countries.Update)
	router.DELETE("/api/countries/:id", h.Countries.Delete)
}

func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(uploadDir))
}
