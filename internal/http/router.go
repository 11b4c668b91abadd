package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig wires the handlers and cross-cutting middleware into the
// public route tree.
type RouterConfig struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler
	Series   *SeriesHandler
	Admin    *AdminHandler
	Sessions SessionValidator
	Logger   *slog.Logger
}

// NewRouter builds the HTTP route tree. Session issuance is the only
// unauthenticated endpoint; everything else requires a valid session, and
// the /admin and /users subtrees additionally require the Admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	router := chi.NewRouter()
	router.Use(RequestLogger(logger))

	if cfg.Auth != nil {
		router.Post("/sessions", cfg.Auth.CreateSession)
	}

	router.Group(func(r chi.Router) {
		if cfg.Sessions != nil {
			r.Use(RequireSession(cfg.Sessions, logger))
		}

		if cfg.Auth != nil {
			r.Delete("/sessions/current", cfg.Auth.DeleteCurrentSession)
		}

		if cfg.Rooms != nil {
			r.Get("/rooms", cfg.Rooms.List)
			r.Get("/rooms/{id}", cfg.Rooms.Get)
		}

		if cfg.Bookings != nil {
			r.Post("/bookings", cfg.Bookings.Create)
			r.Put("/bookings/{id}", cfg.Bookings.Update)
			r.Delete("/bookings/{id}", cfg.Bookings.Cancel)
			r.Get("/bookings/dashboard", cfg.Bookings.Dashboard)
			r.Get("/bookings/my", cfg.Bookings.MyBookings)
		}

		if cfg.Series != nil {
			r.Post("/bookings/recurring", cfg.Series.Create)
			r.Delete("/recurring-bookings/{id}", cfg.Series.Cancel)
			r.Post("/recurring-bookings/{id}/approve", cfg.Series.Approve)
			r.Post("/recurring-bookings/{id}/deny", cfg.Series.Deny)
		}

		r.Group(func(admin chi.Router) {
			admin.Use(RequireAdmin(logger))

			if cfg.Rooms != nil {
				admin.Post("/rooms", cfg.Rooms.Create)
				admin.Put("/rooms/{id}", cfg.Rooms.Update)
				admin.Delete("/rooms/{id}", cfg.Rooms.Delete)
			}

			if cfg.Users != nil {
				admin.Get("/users", cfg.Users.List)
				admin.Post("/users", cfg.Users.Create)
				admin.Put("/users/{id}", cfg.Users.Update)
				admin.Delete("/users/{id}", cfg.Users.Delete)
			}

			if cfg.Admin != nil {
				admin.Get("/admin/approval-queue", cfg.Admin.ApprovalQueue)
				admin.Get("/bookings/all", cfg.Admin.AllBookings)
				admin.Get("/admin/reports", cfg.Admin.Reports)
				admin.Post("/admin/bookings/{id}/approve", cfg.Admin.ApproveBooking)
				admin.Post("/admin/bookings/{id}/deny", cfg.Admin.DenyBooking)
				admin.Delete("/admin/bookings/{id}", cfg.Admin.DeleteBooking)
			}
		})
	})

	return router
}
