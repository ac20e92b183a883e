package routes

import (
	"net/http"

	"github.com/sevadesk/civicbook/internal/api/handlers"
	"github.com/sevadesk/civicbook/internal/api/middleware"
	"github.com/sevadesk/civicbook/internal/infrastructure/observability"
	"github.com/sevadesk/civicbook/pkg/config"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	departmentHandler *handlers.DepartmentHandler
	bookingHandler    *handlers.BookingHandler
	officerHandler    *handlers.OfficerHandler

	authConfig      *config.AuthConfig
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	documentPath    string
}

// NewRouter creates a new router
func NewRouter(
	departmentHandler *handlers.DepartmentHandler,
	bookingHandler *handlers.BookingHandler,
	officerHandler *handlers.OfficerHandler,
	authConfig *config.AuthConfig,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	documentPath string,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		departmentHandler: departmentHandler,
		bookingHandler:    bookingHandler,
		officerHandler:    officerHandler,
		authConfig:        authConfig,
		cacheMiddleware:   cacheMiddleware,
		metrics:           metrics,
		documentPath:      documentPath,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	auth := middleware.AuthMiddleware(r.authConfig)
	officer := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole(middleware.RoleOfficer)(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Department discovery and slot listing
	r.mux.HandleFunc("GET /api/departments", r.departmentHandler.ListDepartments)
	r.mux.HandleFunc("GET /api/departments/{deptId}", r.departmentHandler.GetDepartment)
	r.mux.HandleFunc("GET /api/departments/{deptId}/services", r.departmentHandler.ListServices)
	r.mux.HandleFunc("GET /api/departments/{deptId}/booking/dates", r.departmentHandler.ListBookingDates)
	r.mux.HandleFunc("GET /api/departments/{deptId}/booking/{serviceId}/slots", r.departmentHandler.ListSlots)

	// Citizen booking endpoints
	r.mux.Handle("POST /api/departments/{deptId}/booking/{serviceId}/book", authed(r.bookingHandler.CreateBooking))
	r.mux.Handle("GET /api/bookings/user", authed(r.bookingHandler.ListMyBookings))
	r.mux.Handle("GET /api/bookings/{id}", authed(r.bookingHandler.GetBooking))
	r.mux.Handle("POST /api/bookings/{id}/cancel", authed(r.bookingHandler.CancelBooking))
	r.mux.Handle("POST /api/bookings/{id}/documents/upload", authed(r.bookingHandler.UploadDocument))
	r.mux.Handle("GET /api/bookings/{id}/documents", authed(r.bookingHandler.ListDocuments))

	// Officer review endpoints
	r.mux.Handle("GET /api/officer/departments/{deptId}/bookings", officer(r.officerHandler.ListBookings))
	r.mux.Handle("GET /api/officer/bookings/{id}", officer(r.officerHandler.GetBooking))
	r.mux.Handle("POST /api/officer/bookings/{id}/approve", officer(r.officerHandler.ApproveBooking))
	r.mux.Handle("POST /api/officer/bookings/{id}/reject", officer(r.officerHandler.RejectBooking))
	r.mux.Handle("POST /api/officer/bookings/{id}/cancel", officer(r.officerHandler.CancelBooking))
	r.mux.Handle("POST /api/officer/bookings/{id}/complete", officer(r.officerHandler.CompleteBooking))
	r.mux.Handle("POST /api/officer/bookings/{id}/docs/{docId}/approve", officer(r.officerHandler.ApproveDocument))
	r.mux.Handle("POST /api/officer/bookings/{id}/docs/{docId}/reject", officer(r.officerHandler.RejectDocument))

	// Uploaded documents, served for officer review
	if r.documentPath != "" {
		r.mux.Handle("GET /documents/", http.StripPrefix("/documents/",
			http.FileServer(http.Dir(r.documentPath))))
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
