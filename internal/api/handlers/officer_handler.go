package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sevadesk/civicbook/internal/application/services"
	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
)

// OfficerHandler handles the department officer review workflow
type OfficerHandler struct {
	bookingService      *services.BookingService
	verificationService *services.VerificationService
}

// NewOfficerHandler creates a new officer handler
func NewOfficerHandler(
	bookingService *services.BookingService,
	verificationService *services.VerificationService,
) *OfficerHandler {
	return &OfficerHandler{
		bookingService:      bookingService,
		verificationService: verificationService,
	}
}

// ListBookings handles GET /api/officer/departments/{deptId}/bookings
func (h *OfficerHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	deptID := r.PathValue("deptId")
	if deptID == "" {
		respondWithError(w, http.StatusBadRequest, "department ID is required")
		return
	}

	filter := repositories.BookingFilter{
		Status: entities.BookingStatus(r.URL.Query().Get("status")),
		Date:   r.URL.Query().Get("date"),
		Limit:  100,
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	bookings, err := h.bookingService.ListByDepartment(r.Context(), deptID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking handles GET /api/officer/bookings/{id}
func (h *OfficerHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// ApproveDocument handles POST /api/officer/bookings/{id}/docs/{docId}/approve
func (h *OfficerHandler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	docID := r.PathValue("docId")
	if id == "" || docID == "" {
		respondWithError(w, http.StatusBadRequest, "booking and document IDs are required")
		return
	}

	if err := h.verificationService.ApproveDocument(r.Context(), id, docID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.DocumentStatusApproved)})
}

// RejectDocument handles POST /api/officer/bookings/{id}/docs/{docId}/reject
func (h *OfficerHandler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	docID := r.PathValue("docId")
	if id == "" || docID == "" {
		respondWithError(w, http.StatusBadRequest, "booking and document IDs are required")
		return
	}

	reason, ok := decodeReason(w, r)
	if !ok {
		return
	}

	if err := h.verificationService.RejectDocument(r.Context(), id, docID, reason); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.DocumentStatusRejected)})
}

// ApproveBooking handles POST /api/officer/bookings/{id}/approve
func (h *OfficerHandler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.verificationService.Approve(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// RejectBooking handles POST /api/officer/bookings/{id}/reject
func (h *OfficerHandler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	reason, ok := decodeReason(w, r)
	if !ok {
		return
	}

	booking, err := h.verificationService.Reject(r.Context(), id, reason)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /api/officer/bookings/{id}/cancel; the token
// returns to the ledger exactly as with a citizen cancellation
func (h *OfficerHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.bookingService.CancelByOfficer(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// CompleteBooking handles POST /api/officer/bookings/{id}/complete
func (h *OfficerHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	booking, err := h.verificationService.Complete(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

func decodeReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	return body.Reason, true
}
