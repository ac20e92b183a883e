package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/providers"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
	"github.com/sevadesk/civicbook/pkg/utils"
)

// VerificationService handles document submission and the officer review
// workflow. Status progression is derived from the current document set, never
// from the order in which uploads happened.
type VerificationService struct {
	repo        repositories.BookingRepository
	serviceRepo repositories.ServiceRepository
	store       providers.DocumentStore
	eventBus    providers.EventBus

	// now is injectable for tests
	now func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	repo repositories.BookingRepository,
	serviceRepo repositories.ServiceRepository,
	store providers.DocumentStore,
	eventBus providers.EventBus,
) *VerificationService {
	return &VerificationService{
		repo:        repo,
		serviceRepo: serviceRepo,
		store:       store,
		eventBus:    eventBus,
		now:         time.Now,
	}
}

// documentMutableStatuses are the booking states in which the citizen may
// still upload documents
var documentMutableStatuses = map[entities.BookingStatus]bool{
	entities.BookingStatusPendingDocs:   true,
	entities.BookingStatusDocsSubmitted: true,
	entities.BookingStatusUnderReview:   true,
}

// UploadDocument stores an uploaded file against the caller's booking and
// applies any document-driven status progression
func (s *VerificationService) UploadDocument(ctx context.Context, bookingID, userID, name, filename string, content io.Reader) (*entities.Document, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.NewUnauthorizedError("booking belongs to another user")
	}
	if !documentMutableStatuses[booking.Status] {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("documents cannot be added to a booking in status %s", booking.Status))
	}

	svc, err := s.serviceRepo.GetByID(ctx, booking.ServiceID)
	if err != nil {
		return nil, err
	}
	name = utils.NormalizeDocumentName(name)
	if !isRequiredDocument(svc.RequiredDocuments, name) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("%q is not a document required by this service", name))
	}

	url, err := s.store.Save(ctx, bookingID, filename, content)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to store document", err)
	}

	doc := &entities.Document{
		ID:          uuid.New().String(),
		BookingID:   bookingID,
		Name:        name,
		DocumentURL: url,
		Status:      entities.DocumentStatusPending,
	}
	if err := s.repo.AddDocument(ctx, doc); err != nil {
		return nil, err
	}

	booking.Documents = append(booking.Documents, *doc)
	if err := s.progressDocuments(ctx, booking, svc.RequiredDocuments); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the documents submitted against the caller's booking
func (s *VerificationService) ListDocuments(ctx context.Context, bookingID, userID string) ([]entities.Document, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.NewUnauthorizedError("booking belongs to another user")
	}
	return booking.Documents, nil
}

// ApproveDocument records an officer's approval of one document
func (s *VerificationService) ApproveDocument(ctx context.Context, bookingID, documentID string) error {
	return s.reviewDocument(ctx, bookingID, documentID, entities.DocumentStatusApproved, "")
}

// RejectDocument records an officer's rejection of one document; the reason is
// mandatory so the citizen knows what to fix
func (s *VerificationService) RejectDocument(ctx context.Context, bookingID, documentID, reason string) error {
	if reason == "" {
		return apperrors.NewValidationError("a rejection reason is required")
	}
	return s.reviewDocument(ctx, bookingID, documentID, entities.DocumentStatusRejected, reason)
}

func (s *VerificationService) reviewDocument(ctx context.Context, bookingID, documentID string, status entities.DocumentStatus, reason string) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != entities.BookingStatusDocsSubmitted && booking.Status != entities.BookingStatusUnderReview {
		return apperrors.NewValidationError(
			fmt.Sprintf("documents cannot be reviewed while the booking is %s", booking.Status))
	}
	return s.repo.UpdateDocumentStatus(ctx, bookingID, documentID, status, reason)
}

// Approve moves a reviewed booking to APPROVED. A booking whose service
// requires documents cannot be approved until every submitted document is.
func (s *VerificationService) Approve(ctx context.Context, bookingID string) (*entities.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entities.BookingStatusUnderReview {
		return nil, apperrors.NewInvalidTransitionError(string(booking.Status), string(entities.BookingStatusApproved))
	}

	svc, err := s.serviceRepo.GetByID(ctx, booking.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.NeedsDocuments() && !booking.AllDocumentsApproved() {
		return nil, apperrors.NewValidationError("all submitted documents must be approved first")
	}

	return s.transition(ctx, booking, entities.BookingStatusApproved, "")
}

// Reject moves a reviewed booking to REJECTED with a mandatory reason
func (s *VerificationService) Reject(ctx context.Context, bookingID, reason string) (*entities.Booking, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("a rejection reason is required")
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entities.BookingStatusUnderReview {
		return nil, apperrors.NewInvalidTransitionError(string(booking.Status), string(entities.BookingStatusRejected))
	}

	return s.transition(ctx, booking, entities.BookingStatusRejected, reason)
}

// Complete marks an approved booking as served
func (s *VerificationService) Complete(ctx context.Context, bookingID string) (*entities.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entities.BookingStatusApproved {
		return nil, apperrors.NewInvalidTransitionError(string(booking.Status), string(entities.BookingStatusCompleted))
	}

	return s.transition(ctx, booking, entities.BookingStatusCompleted, "")
}

// transition applies one compare-and-set status move and publishes the change
func (s *VerificationService) transition(ctx context.Context, booking *entities.Booking, to entities.BookingStatus, reason string) (*entities.Booking, error) {
	if err := s.repo.UpdateStatus(ctx, booking.ID, booking.Status, to, reason); err != nil {
		return nil, err
	}
	booking.Status = to
	booking.RejectionReason = reason

	publishBookingEvent(ctx, s.eventBus, booking, entities.BookingEventStatusChanged, reason, s.now())
	return booking, nil
}

// progressDocuments applies the derived-status check repeatedly so a single
// upload can carry the booking through more than one stage
func (s *VerificationService) progressDocuments(ctx context.Context, booking *entities.Booking, required []entities.RequiredDocument) error {
	for {
		to, ok := booking.DerivedStatusAfterDocuments(required)
		if !ok {
			return nil
		}
		if _, err := s.transition(ctx, booking, to, ""); err != nil {
			return err
		}
	}
}

func isRequiredDocument(required []entities.RequiredDocument, name string) bool {
	if len(required) == 0 {
		return false
	}
	for _, rd := range required {
		if rd.Name == name {
			return true
		}
	}
	return false
}
