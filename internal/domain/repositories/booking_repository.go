package repositories

import (
	"context"

	"github.com/sevadesk/civicbook/internal/domain/entities"
)

// BookingRepository defines the interface for booking data operations.
//
// AdmitBooking and CancelWithRelease pair a booking mutation with its capacity
// ledger effect inside a single storage transaction: a booking row can never
// exist without its reservation, and vice versa.
type BookingRepository interface {
	// AdmitBooking atomically reserves capacity for the booking's slot,
	// assigns its sequential token number and inserts the booking row.
	// Admission refusals surface as typed admission errors.
	AdmitBooking(ctx context.Context, booking *entities.Booking, caps SlotCaps) error

	// GetByID retrieves a booking with its documents
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// ListByUser retrieves bookings for a user
	ListByUser(ctx context.Context, userID string, filter BookingFilter) ([]*entities.Booking, error)

	// ListByDepartment retrieves bookings for a department
	ListByDepartment(ctx context.Context, departmentID string, filter BookingFilter) ([]*entities.Booking, error)

	// UpdateStatus performs a compare-and-set status transition. It fails
	// with an invalid-transition error when the booking is no longer in the
	// expected from status.
	UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, reason string) error

	// CancelWithRelease atomically moves the booking to CANCELLED and
	// releases its slot reservation back to the ledger. Cancelling a booking
	// that already left a non-terminal state is rejected, which makes the
	// ledger release idempotent.
	CancelWithRelease(ctx context.Context, booking *entities.Booking) error

	// AddDocument appends a submitted document to a booking
	AddDocument(ctx context.Context, doc *entities.Document) error

	// UpdateDocumentStatus records an officer's verdict on one document
	UpdateDocumentStatus(ctx context.Context, bookingID, documentID string, status entities.DocumentStatus, reason string) error
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	Date   string
	Limit  int
	Offset int
}
