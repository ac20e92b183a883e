package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sevadesk/civicbook/internal/api/middleware"
	"github.com/sevadesk/civicbook/internal/application/services"
	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	"github.com/sevadesk/civicbook/internal/infrastructure/observability"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
)

// maxDocumentSize caps uploaded document size at 10 MiB
const maxDocumentSize = 10 << 20

// BookingHandler handles citizen-facing booking requests
type BookingHandler struct {
	bookingService      *services.BookingService
	verificationService *services.VerificationService
	metrics             *observability.Metrics
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookingService *services.BookingService,
	verificationService *services.VerificationService,
	metrics *observability.Metrics,
) *BookingHandler {
	return &BookingHandler{
		bookingService:      bookingService,
		verificationService: verificationService,
		metrics:             metrics,
	}
}

// CreateBooking handles POST /api/departments/{deptId}/booking/{serviceId}/book
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptId")
	serviceID := r.PathValue("serviceId")
	if deptID == "" || serviceID == "" {
		respondWithError(w, http.StatusBadRequest, "department and service IDs are required")
		return
	}

	var req services.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.DepartmentID = deptID
	req.ServiceID = serviceID
	req.UserID = middleware.UserIDFromContext(r.Context())

	booking, err := h.bookingService.Create(r.Context(), &req)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrorTypeAdmission {
			observability.RecordAdmission(r.Context(), h.metrics, deptID, string(appErr.Reason))
		}
		respondWithAppError(w, err)
		return
	}

	observability.RecordAdmission(r.Context(), h.metrics, deptID, "")
	respondWithJSON(w, http.StatusCreated, booking)
}

// ListMyBookings handles GET /api/bookings/user
func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	filter := repositories.BookingFilter{
		Status: entities.BookingStatus(r.URL.Query().Get("status")),
		Date:   r.URL.Query().Get("date"),
		Limit:  50,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	bookings, err := h.bookingService.ListByUser(r.Context(), userID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.bookingService.GetForUser(r.Context(), id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.bookingService.Cancel(r.Context(), id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// UploadDocument handles POST /api/bookings/{id}/documents/upload.
// Multipart form fields: name (which required document this is), file.
func (h *BookingHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "document name is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	doc, err := h.verificationService.UploadDocument(
		r.Context(), id, middleware.UserIDFromContext(r.Context()), name, header.Filename, file)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /api/bookings/{id}/documents
func (h *BookingHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	docs, err := h.verificationService.ListDocuments(r.Context(), id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}
