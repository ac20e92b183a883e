package providers

import (
	"context"

	"github.com/sevadesk/civicbook/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to booking
// lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event scopes
const (
	// EventChannelBookingUpdates is the firehose channel for all booking events
	EventChannelBookingUpdates = "bookings:updates"

	// EventChannelDepartmentPrefix is the prefix for department-scoped channels
	EventChannelDepartmentPrefix = "bookings:department:"

	// EventChannelUserPrefix is the prefix for user-scoped channels
	EventChannelUserPrefix = "bookings:user:"
)

// GetDepartmentChannel returns the channel name for a department's bookings
func GetDepartmentChannel(departmentID string) string {
	return EventChannelDepartmentPrefix + departmentID
}

// GetUserChannel returns the channel name for one citizen's bookings
func GetUserChannel(userID string) string {
	return EventChannelUserPrefix + userID
}
