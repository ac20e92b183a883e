package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sevadesk/civicbook/internal/adapters/storage"
	"github.com/sevadesk/civicbook/internal/domain/entities"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
)

func newVerificationService(repo *MockBookingRepository, svcRepo *MockServiceRepository, store *storage.MockDocumentStore, bus *MockEventBus) *VerificationService {
	s := NewVerificationService(repo, svcRepo, store, bus)
	s.now = func() time.Time { return fixedNow }
	return s
}

func docBooking(status entities.BookingStatus, docs ...entities.Document) *entities.Booking {
	return &entities.Booking{
		ID:           "bk-1",
		DepartmentID: "dept-1",
		ServiceID:    "svc-1",
		UserID:       "user-1",
		Date:         "2026-09-03",
		SlotTime:     "10:00",
		Status:       status,
		Documents:    docs,
	}
}

func pendingDoc(name string) entities.Document {
	return entities.Document{
		ID:        "doc-" + name,
		BookingID: "bk-1",
		Name:      name,
		Status:    entities.DocumentStatusPending,
	}
}

func approvedDoc(name string) entities.Document {
	d := pendingDoc(name)
	d.Status = entities.DocumentStatusApproved
	return d
}

func TestVerificationService_UploadDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("first upload moves the booking to DOCS_SUBMITTED", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		store := new(storage.MockDocumentStore)
		bus := new(MockEventBus)

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)
		store.On("Save", ctx, "bk-1", "id.pdf", mock.Anything).Return("/documents/bk-1/abc.pdf", nil)
		repo.On("AddDocument", ctx, mock.AnythingOfType("*entities.Document")).Return(nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusPendingDocs, entities.BookingStatusDocsSubmitted, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, store, bus)

		doc, err := s.UploadDocument(ctx, "bk-1", "user-1", "identity_proof", "id.pdf", strings.NewReader("bytes"))
		require.NoError(t, err)
		assert.Equal(t, "/documents/bk-1/abc.pdf", doc.DocumentURL)
		assert.Equal(t, entities.DocumentStatusPending, doc.Status)
		repo.AssertExpectations(t)
	})

	t.Run("completing the mandatory set chains through to UNDER_REVIEW", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		store := new(storage.MockDocumentStore)
		bus := new(MockEventBus)

		// identity_proof already submitted; address_proof is the last mandatory one
		booking := docBooking(entities.BookingStatusDocsSubmitted, pendingDoc("identity_proof"))
		repo.On("GetByID", ctx, "bk-1").Return(booking, nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)
		store.On("Save", ctx, "bk-1", "addr.pdf", mock.Anything).Return("/documents/bk-1/def.pdf", nil)
		repo.On("AddDocument", ctx, mock.Anything).Return(nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusDocsSubmitted, entities.BookingStatusUnderReview, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, store, bus)

		_, err := s.UploadDocument(ctx, "bk-1", "user-1", "address_proof", "addr.pdf", strings.NewReader("bytes"))
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("a fresh booking can cross both stages on one upload", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		store := new(storage.MockDocumentStore)
		bus := new(MockEventBus)

		// only one mandatory document in total
		svc := testService()
		svc.RequiredDocuments = []entities.RequiredDocument{{Name: "identity_proof", Mandatory: true}}

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(svc, nil)
		store.On("Save", ctx, "bk-1", "id.pdf", mock.Anything).Return("/documents/bk-1/abc.pdf", nil)
		repo.On("AddDocument", ctx, mock.Anything).Return(nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusPendingDocs, entities.BookingStatusDocsSubmitted, "").Return(nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusDocsSubmitted, entities.BookingStatusUnderReview, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, store, bus)

		_, err := s.UploadDocument(ctx, "bk-1", "user-1", "identity_proof", "id.pdf", strings.NewReader("bytes"))
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("missing mandatory documents hold the booking at DOCS_SUBMITTED", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		store := new(storage.MockDocumentStore)
		bus := new(MockEventBus)

		// optional old_license arrives while address_proof is still missing
		booking := docBooking(entities.BookingStatusDocsSubmitted, pendingDoc("identity_proof"))
		repo.On("GetByID", ctx, "bk-1").Return(booking, nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)
		store.On("Save", ctx, "bk-1", "old.pdf", mock.Anything).Return("/documents/bk-1/ghi.pdf", nil)
		repo.On("AddDocument", ctx, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, store, bus)

		_, err := s.UploadDocument(ctx, "bk-1", "user-1", "old_license", "old.pdf", strings.NewReader("bytes"))
		require.NoError(t, err)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("folds free-form names onto the canonical document key", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		store := new(storage.MockDocumentStore)
		bus := new(MockEventBus)

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)
		store.On("Save", ctx, "bk-1", "id.pdf", mock.Anything).Return("/documents/bk-1/abc.pdf", nil)
		repo.On("AddDocument", ctx, mock.Anything).Return(nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusPendingDocs, entities.BookingStatusDocsSubmitted, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, store, bus)

		doc, err := s.UploadDocument(ctx, "bk-1", "user-1", "Photo ID", "id.pdf", strings.NewReader("bytes"))
		require.NoError(t, err)
		assert.Equal(t, "identity_proof", doc.Name)
	})

	t.Run("rejects a document the service does not require", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)

		s := newVerificationService(repo, svcRepo, new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.UploadDocument(ctx, "bk-1", "user-1", "selfie", "me.jpg", strings.NewReader("bytes"))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects uploads on a terminal booking", func(t *testing.T) {
		repo := new(MockBookingRepository)
		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusRejected), nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.UploadDocument(ctx, "bk-1", "user-1", "identity_proof", "id.pdf", strings.NewReader("bytes"))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects uploads from another user", func(t *testing.T) {
		repo := new(MockBookingRepository)
		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.UploadDocument(ctx, "bk-1", "intruder", "identity_proof", "id.pdf", strings.NewReader("bytes"))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestVerificationService_DocumentReview(t *testing.T) {
	ctx := context.Background()

	t.Run("approves a document under review", func(t *testing.T) {
		repo := new(MockBookingRepository)
		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusUnderReview, pendingDoc("identity_proof")), nil)
		repo.On("UpdateDocumentStatus", ctx, "bk-1", "doc-identity_proof", entities.DocumentStatusApproved, "").Return(nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		err := s.ApproveDocument(ctx, "bk-1", "doc-identity_proof")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("document rejection requires a reason", func(t *testing.T) {
		s := newVerificationService(new(MockBookingRepository), new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		err := s.RejectDocument(ctx, "bk-1", "doc-identity_proof", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("documents cannot be reviewed before submission", func(t *testing.T) {
		repo := new(MockBookingRepository)
		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		err := s.ApproveDocument(ctx, "bk-1", "doc-identity_proof")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestVerificationService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approves when every document is approved", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		bus := new(MockEventBus)

		booking := docBooking(entities.BookingStatusUnderReview,
			approvedDoc("identity_proof"), approvedDoc("address_proof"))
		repo.On("GetByID", ctx, "bk-1").Return(booking, nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusUnderReview, entities.BookingStatusApproved, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, new(storage.MockDocumentStore), bus)

		approved, err := s.Approve(ctx, "bk-1")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusApproved, approved.Status)
	})

	t.Run("refuses while any document is unapproved", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)

		booking := docBooking(entities.BookingStatusUnderReview,
			approvedDoc("identity_proof"), pendingDoc("address_proof"))
		repo.On("GetByID", ctx, "bk-1").Return(booking, nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(testService(), nil)

		s := newVerificationService(repo, svcRepo, new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.Approve(ctx, "bk-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("approves a documentless service without documents", func(t *testing.T) {
		repo := new(MockBookingRepository)
		svcRepo := new(MockServiceRepository)
		bus := new(MockEventBus)

		svc := testService()
		svc.RequiresDocuments = false
		svc.RequiredDocuments = nil

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusUnderReview), nil)
		svcRepo.On("GetByID", ctx, "svc-1").Return(svc, nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusUnderReview, entities.BookingStatusApproved, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, svcRepo, new(storage.MockDocumentStore), bus)

		_, err := s.Approve(ctx, "bk-1")
		assert.NoError(t, err)
	})

	t.Run("refuses outside UNDER_REVIEW", func(t *testing.T) {
		repo := new(MockBookingRepository)
		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusPendingDocs), nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.Approve(ctx, "bk-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})
}

func TestVerificationService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects with a reason and publishes it", func(t *testing.T) {
		repo := new(MockBookingRepository)
		bus := new(MockEventBus)

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusUnderReview), nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusUnderReview, entities.BookingStatusRejected, "document mismatch").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.MatchedBy(func(e *entities.BookingEvent) bool {
			return e.Reason == "document mismatch"
		})).Return(nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), bus)

		rejected, err := s.Reject(ctx, "bk-1", "document mismatch")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusRejected, rejected.Status)
		assert.Equal(t, "document mismatch", rejected.RejectionReason)
	})

	t.Run("a reason is mandatory", func(t *testing.T) {
		s := newVerificationService(new(MockBookingRepository), new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.Reject(ctx, "bk-1", "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestVerificationService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("completes an approved booking", func(t *testing.T) {
		repo := new(MockBookingRepository)
		bus := new(MockEventBus)

		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusApproved), nil)
		repo.On("UpdateStatus", ctx, "bk-1", entities.BookingStatusApproved, entities.BookingStatusCompleted, "").Return(nil)
		bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), bus)

		completed, err := s.Complete(ctx, "bk-1")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCompleted, completed.Status)
	})

	t.Run("refuses to complete an unapproved booking", func(t *testing.T) {
		repo := new(MockBookingRepository)
		repo.On("GetByID", ctx, "bk-1").Return(docBooking(entities.BookingStatusUnderReview), nil)

		s := newVerificationService(repo, new(MockServiceRepository), new(storage.MockDocumentStore), new(MockEventBus))

		_, err := s.Complete(ctx, "bk-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})
}
