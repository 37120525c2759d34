/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RealIP:        Client address from proxy headers
  3. RequestLogger: One zap entry per request
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. CORS:          Cross-origin requests for the front end
  6. Authenticate:  Bearer token to hotel.Session

ROUTE GROUPS:
  /api/accounts, /api/sessions      Public
  /api/rooms/*                      Public
  /api/profile, /api/bookings/*     Customer session (cancel: customer or admin)
  /api/admin/*                      Admin session (except admin login)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Session middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(h.Tokens.Authenticate)

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", h.SignUp)
		r.Post("/sessions", h.Login)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Get("/{number}/availability", h.GetAvailability)
		})

		// Customer routes
		r.Group(func(r chi.Router) {
			r.Use(RequireCustomer)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.SaveProfile)
			r.Post("/bookings", h.CreateBooking)
			r.Get("/bookings", h.ListMyBookings)
		})

		// Ownership is checked in the handler.
		r.Post("/bookings/{id}/cancel", requireAnySession(h.CancelBooking))

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sessions", h.AdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/bookings", h.ListBookings)
				r.Get("/revenue", h.GetRevenue)
				r.Put("/password", h.ChangeAdminPassword)
			})
		})
	})

	return r
}

func requireAnySession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := SessionFrom(r.Context())
		if !s.Admin && !s.IsCustomer() {
			writeError(w, http.StatusUnauthorized, "Login required", nil)
			return
		}
		next(w, r)
	}
}

// RequestLogger logs one entry per request with its status and duration.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
