package entities

import (
	"time"
)

// QueueType represents how a department serves its queue
type QueueType string

const (
	QueueTypeOnline  QueueType = "online"
	QueueTypeOffline QueueType = "offline"
	QueueTypeHybrid  QueueType = "hybrid"
)

// WorkingHours describes one weekday's opening window.
// OpenTime and CloseTime use the "15:04" wall-clock format.
type WorkingHours struct {
	Day       time.Weekday `json:"day" db:"day"`
	IsClosed  bool         `json:"is_closed" db:"is_closed"`
	OpenTime  string       `json:"open_time" db:"open_time"`
	CloseTime string       `json:"close_time" db:"close_time"`
}

// TokenManagementConfig controls how bookable tokens are cut from working hours
type TokenManagementConfig struct {
	SlotIntervalMinutes int       `json:"slot_interval_minutes"`
	MaxDailyTokens      int       `json:"max_daily_tokens"`
	QueueType           QueueType `json:"queue_type"`
	MaxTokensPerSlot    int       `json:"max_tokens_per_slot"`
	AllowPriorityTokens bool      `json:"allow_priority_tokens"`
	PriorityPercentage  int       `json:"priority_percentage"`
	AutoStopOnOverload  bool      `json:"auto_stop_on_overload"`
}

// Department represents a government department offering bookable services.
// Department configuration is owned by the external department service and is
// read-only here.
type Department struct {
	ID                string                `json:"id" db:"id"`
	Name              string                `json:"name" db:"name"`
	BookingWindowDays int                   `json:"booking_window_days" db:"booking_window_days"`
	WorkingHours      []WorkingHours        `json:"working_hours"`
	TokenConfig       TokenManagementConfig `json:"token_config"`
	CreatedAt         time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at" db:"updated_at"`
}

// HoursFor returns the working-hours entry for the given weekday
func (d *Department) HoursFor(day time.Weekday) (WorkingHours, bool) {
	for _, wh := range d.WorkingHours {
		if wh.Day == day {
			return wh, true
		}
	}
	return WorkingHours{}, false
}
