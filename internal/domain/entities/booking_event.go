package entities

import (
	"time"
)

// BookingEventType classifies booking lifecycle events
type BookingEventType string

const (
	BookingEventCreated       BookingEventType = "booking.created"
	BookingEventStatusChanged BookingEventType = "booking.status_changed"
	BookingEventCancelled     BookingEventType = "booking.cancelled"
)

// BookingEvent is published on the event bus whenever a booking changes
// state. External collaborators (notification, reporting) consume these.
type BookingEvent struct {
	ID           string           `json:"id"`
	Type         BookingEventType `json:"type"`
	BookingID    string           `json:"booking_id"`
	DepartmentID string           `json:"department_id"`
	ServiceID    string           `json:"service_id"`
	UserID       string           `json:"user_id"`
	Status       BookingStatus    `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}
