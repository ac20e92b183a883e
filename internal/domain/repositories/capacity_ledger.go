package repositories

import (
	"context"

	"github.com/sevadesk/civicbook/internal/domain/entities"
)

// SlotKey identifies one bookable slot in the capacity ledger
type SlotKey struct {
	DepartmentID string
	ServiceID    string
	Date         string
	SlotTime     string
}

// SlotCaps carries the configured limits the ledger enforces for a slot.
// Capacity limits are resolved from department/service configuration by the
// caller; the ledger itself stores only consumption.
type SlotCaps struct {
	Capacity            int
	PriorityCapacity    int
	MaxDailyTokens      int
	AllowPriorityTokens bool
	AutoStopOnOverload  bool
}

// SlotCount is the live consumption for one slot
type SlotCount struct {
	Regular  int
	Priority int
}

// CapacityLedger tracks token consumption per (department, service, date,
// slot) and performs atomic admission. Reserve and Release execute as single
// conditional updates against the store, never as read-then-write in
// application code, so concurrent requests are serialized at the storage
// layer.
type CapacityLedger interface {
	// Reserve admits one booking against the slot's capacity and the
	// department's daily limit, and returns the assigned sequential token
	// number (scoped to department+service+date, starting at 1). Refusals
	// surface as typed admission errors.
	Reserve(ctx context.Context, key SlotKey, caps SlotCaps, priority entities.PriorityType) (int, error)

	// Release returns one consumed token to the slot's pool. Releasing below
	// zero is a no-op, not an error.
	Release(ctx context.Context, key SlotKey, priority entities.PriorityType) error

	// SlotCounts returns live consumption for every ledgered slot of a
	// service on a date, keyed by slot start time. Slots with no consumption
	// yet have no entry.
	SlotCounts(ctx context.Context, departmentID, serviceID, date string) (map[string]SlotCount, error)

	// DailyConsumed returns the department-wide token count for a date
	DailyConsumed(ctx context.Context, departmentID, date string) (int, error)
}
