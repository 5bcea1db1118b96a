package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/njoroofficial/dev-events/internal/delivery/http/controllers"
	"github.com/njoroofficial/dev-events/internal/delivery/http/middleware"
	"github.com/njoroofficial/dev-events/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes. The
// cache and limiter are optional; passing nil disables response caching and
// rate limiting respectively.
func NewRouter(
	eventController *controllers.EventController,
	bookingController *controllers.BookingController,
	authController *controllers.AuthController,
	healthController *controllers.HealthController,
	verifier domain.TokenVerifier,
	cache *middleware.Cache,
	limiter *middleware.RateLimiter,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier)

	withCache := func(h http.HandlerFunc) http.HandlerFunc {
		if cache == nil {
			return h
		}
		return cache.Middleware(h).ServeHTTP
	}
	withLimit := func(h http.HandlerFunc) http.HandlerFunc {
		if limiter == nil {
			return h
		}
		return limiter.Limit(middleware.ClientIP, h)
	}

	// Events. Public reads are served from the response cache when Redis is
	// configured; metrics wrap the cache so hits are counted too.
	mux.HandleFunc("GET /events", middleware.Metrics("GET /events", withCache(eventController.ListEvents)))
	mux.HandleFunc("GET /events/{slug}", middleware.Metrics("GET /events/{slug}", withCache(eventController.GetEventBySlug)))
	mux.HandleFunc("POST /events", middleware.Metrics("POST /events", requireAuth(eventController.CreateEvent)))
	mux.HandleFunc("PATCH /events/{eventID}", middleware.Metrics("PATCH /events/{eventID}", requireAuth(eventController.UpdateEvent)))
	mux.HandleFunc("DELETE /events/{eventID}", middleware.Metrics("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent)))

	// Bookings. Creation is public and rate limited per client address.
	mux.HandleFunc("POST /events/{eventID}/bookings", middleware.Metrics("POST /events/{eventID}/bookings", withLimit(bookingController.CreateBooking)))
	mux.HandleFunc("GET /events/{eventID}/bookings", middleware.Metrics("GET /events/{eventID}/bookings", requireAuth(bookingController.ListEventBookings)))

	// Auth
	mux.HandleFunc("POST /auth/signup", middleware.Metrics("POST /auth/signup", authController.SignUp))
	mux.HandleFunc("POST /auth/login", middleware.Metrics("POST /auth/login", authController.Login))
	mux.HandleFunc("GET /auth/me", middleware.Metrics("GET /auth/me", requireAuth(authController.Me)))

	// Operational endpoints
	mux.HandleFunc("GET /healthz", healthController.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
