package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevadesk/civicbook/internal/domain/entities"
)

func TestBookingStatus_Transitions(t *testing.T) {
	allowed := []struct {
		from, to entities.BookingStatus
	}{
		{entities.BookingStatusPendingDocs, entities.BookingStatusDocsSubmitted},
		{entities.BookingStatusPendingDocs, entities.BookingStatusCancelled},
		{entities.BookingStatusDocsSubmitted, entities.BookingStatusUnderReview},
		{entities.BookingStatusDocsSubmitted, entities.BookingStatusCancelled},
		{entities.BookingStatusUnderReview, entities.BookingStatusApproved},
		{entities.BookingStatusUnderReview, entities.BookingStatusRejected},
		{entities.BookingStatusUnderReview, entities.BookingStatusCancelled},
		{entities.BookingStatusApproved, entities.BookingStatusCompleted},
		{entities.BookingStatusApproved, entities.BookingStatusCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransitionTo(tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	forbidden := []struct {
		from, to entities.BookingStatus
	}{
		{entities.BookingStatusPendingDocs, entities.BookingStatusUnderReview},
		{entities.BookingStatusPendingDocs, entities.BookingStatusApproved},
		{entities.BookingStatusDocsSubmitted, entities.BookingStatusApproved},
		{entities.BookingStatusUnderReview, entities.BookingStatusCompleted},
		{entities.BookingStatusApproved, entities.BookingStatusRejected},
		{entities.BookingStatusApproved, entities.BookingStatusUnderReview},
		{entities.BookingStatusRejected, entities.BookingStatusCancelled},
		{entities.BookingStatusCancelled, entities.BookingStatusPendingDocs},
		{entities.BookingStatusCompleted, entities.BookingStatusCancelled},
		{entities.BookingStatusCompleted, entities.BookingStatusApproved},
	}
	for _, tr := range forbidden {
		assert.False(t, tr.from.CanTransitionTo(tr.to), "%s -> %s should be forbidden", tr.from, tr.to)
	}
}

func TestBookingStatus_TransitionsFormDAG(t *testing.T) {
	statuses := []entities.BookingStatus{
		entities.BookingStatusPendingDocs,
		entities.BookingStatusDocsSubmitted,
		entities.BookingStatusUnderReview,
		entities.BookingStatusApproved,
		entities.BookingStatusRejected,
		entities.BookingStatusCompleted,
		entities.BookingStatusCancelled,
	}

	// Depth-first walk from every status must never revisit a node on the
	// current path, i.e. the transition graph has no cycles.
	var visit func(s entities.BookingStatus, path map[entities.BookingStatus]bool)
	visit = func(s entities.BookingStatus, path map[entities.BookingStatus]bool) {
		assert.False(t, path[s], "cycle detected through %s", s)
		path[s] = true
		for _, next := range statuses {
			if s.CanTransitionTo(next) {
				visit(next, path)
			}
		}
		delete(path, s)
	}
	for _, s := range statuses {
		visit(s, map[entities.BookingStatus]bool{})
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	assert.True(t, entities.BookingStatusRejected.IsTerminal())
	assert.True(t, entities.BookingStatusCancelled.IsTerminal())
	assert.True(t, entities.BookingStatusCompleted.IsTerminal())

	assert.False(t, entities.BookingStatusPendingDocs.IsTerminal())
	assert.False(t, entities.BookingStatusDocsSubmitted.IsTerminal())
	assert.False(t, entities.BookingStatusUnderReview.IsTerminal())
	assert.False(t, entities.BookingStatusApproved.IsTerminal())
}

func TestBookingStatus_IsValid(t *testing.T) {
	assert.True(t, entities.BookingStatusUnderReview.IsValid())
	assert.False(t, entities.BookingStatus("SOMETHING_ELSE").IsValid())
}

func TestParsePriorityType(t *testing.T) {
	tests := []struct {
		raw  string
		want entities.PriorityType
		ok   bool
	}{
		{"", entities.PriorityNone, true},
		{"NONE", entities.PriorityNone, true},
		{"SENIOR_CITIZEN", entities.PrioritySeniorCitizen, true},
		{"PREGNANT_WOMEN", entities.PriorityPregnantWomen, true},
		{"DIFFERENTLY_ABLED", entities.PriorityDifferentlyAbled, true},
		{"VIP", entities.PriorityNone, false},
		{"senior_citizen", entities.PriorityNone, false},
	}
	for _, tt := range tests {
		got, ok := entities.ParsePriorityType(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}

	assert.True(t, entities.PrioritySeniorCitizen.IsPriority())
	assert.False(t, entities.PriorityNone.IsPriority())
}

func TestBooking_AllDocumentsApproved(t *testing.T) {
	booking := &entities.Booking{}
	assert.False(t, booking.AllDocumentsApproved(), "no documents is not approved")

	booking.Documents = []entities.Document{
		{Name: "id-card", Status: entities.DocumentStatusApproved},
		{Name: "proof-of-address", Status: entities.DocumentStatusPending},
	}
	assert.False(t, booking.AllDocumentsApproved())

	booking.Documents[1].Status = entities.DocumentStatusApproved
	assert.True(t, booking.AllDocumentsApproved())

	booking.Documents[0].Status = entities.DocumentStatusRejected
	assert.False(t, booking.AllDocumentsApproved())
}

func TestBooking_DerivedStatusAfterDocuments(t *testing.T) {
	required := []entities.RequiredDocument{
		{Name: "id-card", Mandatory: true},
		{Name: "photo", Mandatory: false},
	}

	t.Run("pending docs advances once a document exists", func(t *testing.T) {
		booking := &entities.Booking{Status: entities.BookingStatusPendingDocs}
		_, ok := booking.DerivedStatusAfterDocuments(required)
		assert.False(t, ok)

		booking.Documents = []entities.Document{{Name: "photo"}}
		next, ok := booking.DerivedStatusAfterDocuments(required)
		assert.True(t, ok)
		assert.Equal(t, entities.BookingStatusDocsSubmitted, next)
	})

	t.Run("docs submitted advances when mandatory documents present", func(t *testing.T) {
		booking := &entities.Booking{
			Status:    entities.BookingStatusDocsSubmitted,
			Documents: []entities.Document{{Name: "photo"}},
		}
		_, ok := booking.DerivedStatusAfterDocuments(required)
		assert.False(t, ok, "mandatory id-card missing")

		booking.Documents = append(booking.Documents, entities.Document{Name: "id-card"})
		next, ok := booking.DerivedStatusAfterDocuments(required)
		assert.True(t, ok)
		assert.Equal(t, entities.BookingStatusUnderReview, next)
	})

	t.Run("no progression from review or terminal states", func(t *testing.T) {
		for _, status := range []entities.BookingStatus{
			entities.BookingStatusUnderReview,
			entities.BookingStatusApproved,
			entities.BookingStatusCancelled,
		} {
			booking := &entities.Booking{
				Status:    status,
				Documents: []entities.Document{{Name: "id-card"}},
			}
			_, ok := booking.DerivedStatusAfterDocuments(required)
			assert.False(t, ok, "status=%s", status)
		}
	})
}
