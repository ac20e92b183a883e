package entities

import (
	"time"
)

// BookingStatus represents the lifecycle state of a booking. The transition
// table below is the single source of truth; adapters enforce it with
// compare-and-set updates so concurrent officers cannot race a booking into an
// illegal state.
type BookingStatus string

const (
	BookingStatusPendingDocs   BookingStatus = "PENDING_DOCS"
	BookingStatusDocsSubmitted BookingStatus = "DOCS_SUBMITTED"
	BookingStatusUnderReview   BookingStatus = "UNDER_REVIEW"
	BookingStatusApproved      BookingStatus = "APPROVED"
	BookingStatusRejected      BookingStatus = "REJECTED"
	BookingStatusCompleted     BookingStatus = "COMPLETED"
	BookingStatusCancelled     BookingStatus = "CANCELLED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPendingDocs:   {BookingStatusDocsSubmitted, BookingStatusCancelled},
	BookingStatusDocsSubmitted: {BookingStatusUnderReview, BookingStatusCancelled},
	BookingStatusUnderReview:   {BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusApproved:      {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusRejected:      nil,
	BookingStatusCompleted:     nil,
	BookingStatusCancelled:     nil,
}

// CanTransitionTo reports whether the status machine permits moving to target
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// IsValid reports whether s is a known status value
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// PriorityType classifies a booking for the reserved priority quota
type PriorityType string

const (
	PriorityNone             PriorityType = "NONE"
	PrioritySeniorCitizen    PriorityType = "SENIOR_CITIZEN"
	PriorityPregnantWomen    PriorityType = "PREGNANT_WOMEN"
	PriorityDifferentlyAbled PriorityType = "DIFFERENTLY_ABLED"
)

// ParsePriorityType validates a client-supplied priority type. An empty value
// means a regular booking.
func ParsePriorityType(raw string) (PriorityType, bool) {
	switch PriorityType(raw) {
	case "", PriorityNone:
		return PriorityNone, true
	case PrioritySeniorCitizen:
		return PrioritySeniorCitizen, true
	case PriorityPregnantWomen:
		return PriorityPregnantWomen, true
	case PriorityDifferentlyAbled:
		return PriorityDifferentlyAbled, true
	}
	return PriorityNone, false
}

// IsPriority reports whether the booking consumes the priority quota
func (p PriorityType) IsPriority() bool {
	return p != PriorityNone && p != ""
}

// DocumentStatus represents the verification state of one submitted document
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusApproved DocumentStatus = "APPROVED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// Document is one file submitted against a booking
type Document struct {
	ID              string         `json:"id" db:"id"`
	BookingID       string         `json:"booking_id" db:"booking_id"`
	Name            string         `json:"name" db:"name"`
	DocumentURL     string         `json:"document_url" db:"document_url"`
	Status          DocumentStatus `json:"status" db:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// Booking represents a reserved token for a department service. Bookings are
// never deleted; cancellation and rejection are terminal statuses so the
// capacity audit trail survives.
type Booking struct {
	ID              string        `json:"id" db:"id"`
	DepartmentID    string        `json:"department_id" db:"department_id"`
	ServiceID       string        `json:"service_id" db:"service_id"`
	UserID          string        `json:"user_id" db:"user_id"`
	Date            string        `json:"date" db:"date"`
	SlotTime        string        `json:"slot_time" db:"slot_time"`
	TokenNumber     int           `json:"token_number" db:"token_number"`
	PriorityType    PriorityType  `json:"priority_type" db:"priority_type"`
	Status          BookingStatus `json:"status" db:"status"`
	Notes           string        `json:"notes,omitempty" db:"notes"`
	RejectionReason string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Documents       []Document    `json:"documents,omitempty"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// AllDocumentsApproved reports whether every submitted document has been
// approved. A booking with no documents at all does not count as approved.
func (b *Booking) AllDocumentsApproved() bool {
	if len(b.Documents) == 0 {
		return false
	}
	for _, doc := range b.Documents {
		if doc.Status != DocumentStatusApproved {
			return false
		}
	}
	return true
}

// HasDocumentNamed reports whether a document with the given name was submitted
func (b *Booking) HasDocumentNamed(name string) bool {
	for _, doc := range b.Documents {
		if doc.Name == name {
			return true
		}
	}
	return false
}

// DerivedStatusAfterDocuments computes the document-driven auto-progression
// for a booking after a document mutation. It is a pure check over the current
// documents, not an event chain:
//
//	PENDING_DOCS   -> DOCS_SUBMITTED  once at least one document exists
//	DOCS_SUBMITTED -> UNDER_REVIEW    once every mandatory document is submitted
//
// The returned bool is false when no progression applies.
func (b *Booking) DerivedStatusAfterDocuments(required []RequiredDocument) (BookingStatus, bool) {
	switch b.Status {
	case BookingStatusPendingDocs:
		if len(b.Documents) > 0 {
			return BookingStatusDocsSubmitted, true
		}
	case BookingStatusDocsSubmitted:
		for _, rd := range required {
			if rd.Mandatory && !b.HasDocumentNamed(rd.Name) {
				return "", false
			}
		}
		return BookingStatusUnderReview, true
	}
	return "", false
}
