package entities

import (
	"math"
	"time"
)

// TimeLayout is the wall-clock format used for slot boundaries
const TimeLayout = "15:04"

// DateLayout is the calendar-date format used throughout the booking engine
const DateLayout = "2006-01-02"

// Slot is a pure projection of working hours and token configuration onto a
// date. Capacity is fixed by configuration; live consumption is tracked by the
// capacity ledger, never inside the Slot value.
type Slot struct {
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Capacity         int    `json:"capacity"`
	PriorityCapacity int    `json:"priority_capacity"`
}

// RegularCapacity is the portion of the slot reserved for regular bookings.
// Regular and priority pools are mutually exclusive.
func (s Slot) RegularCapacity() int {
	return s.Capacity - s.PriorityCapacity
}

// BuildSlotGrid converts one weekday's working hours and a token configuration
// into the ordered slot grid for the given date. It is deterministic and reads
// no clock; callers are responsible for filtering past or out-of-window dates.
// A trailing partial interval is dropped.
func BuildSlotGrid(hours WorkingHours, cfg TokenManagementConfig, date string) []Slot {
	if hours.IsClosed || cfg.SlotIntervalMinutes <= 0 {
		return nil
	}

	open, err := time.Parse(TimeLayout, hours.OpenTime)
	if err != nil {
		return nil
	}
	close, err := time.Parse(TimeLayout, hours.CloseTime)
	if err != nil {
		return nil
	}
	if !open.Before(close) {
		return nil
	}

	interval := time.Duration(cfg.SlotIntervalMinutes) * time.Minute
	priorityCapacity := PriorityCapacityFor(cfg)

	var slots []Slot
	for start := open; !start.Add(interval).After(close); start = start.Add(interval) {
		end := start.Add(interval)
		slots = append(slots, Slot{
			Date:             date,
			StartTime:        start.Format(TimeLayout),
			EndTime:          end.Format(TimeLayout),
			Capacity:         cfg.MaxTokensPerSlot,
			PriorityCapacity: priorityCapacity,
		})
	}
	return slots
}

// PriorityCapacityFor computes the per-slot priority quota from configuration:
// round(capacity * percentage / 100), clamped into [0, capacity]. Departments
// that do not allow priority tokens get no reserved quota.
func PriorityCapacityFor(cfg TokenManagementConfig) int {
	if !cfg.AllowPriorityTokens {
		return 0
	}
	quota := int(math.Round(float64(cfg.MaxTokensPerSlot) * float64(cfg.PriorityPercentage) / 100.0))
	if quota < 0 {
		quota = 0
	}
	if quota > cfg.MaxTokensPerSlot {
		quota = cfg.MaxTokensPerSlot
	}
	return quota
}

// SlotAvailability overlays live ledger counts on a Slot for display
type SlotAvailability struct {
	Slot
	RegularConsumed  int `json:"regular_consumed"`
	PriorityConsumed int `json:"priority_consumed"`
}

// RegularRemaining is how many regular tokens are still bookable
func (s SlotAvailability) RegularRemaining() int {
	remaining := s.RegularCapacity() - s.RegularConsumed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PriorityRemaining is how many priority tokens are still bookable
func (s SlotAvailability) PriorityRemaining() int {
	remaining := s.PriorityCapacity - s.PriorityConsumed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyBooked reports whether no token of any kind remains
func (s SlotAvailability) IsFullyBooked() bool {
	return s.RegularRemaining() == 0 && s.PriorityRemaining() == 0
}

// DateOverview is one entry of the bookable-dates listing
type DateOverview struct {
	Date     string       `json:"date"`
	Day      time.Weekday `json:"day"`
	IsClosed bool         `json:"is_closed"`
	IsToday  bool         `json:"is_today"`
	IsPast   bool         `json:"is_past"`
}
