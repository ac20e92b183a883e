package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
)

// defaultBookingWindowDays applies when a department has no window configured
const defaultBookingWindowDays = 7

// SlotService projects department configuration into bookable dates and slots.
// Slot grids are computed, never stored; only consumption lives in the ledger.
type SlotService struct {
	departmentRepo repositories.DepartmentRepository
	serviceRepo    repositories.ServiceRepository
	ledger         repositories.CapacityLedger

	// now is injectable for tests
	now func() time.Time
}

// NewSlotService creates a new slot service
func NewSlotService(
	departmentRepo repositories.DepartmentRepository,
	serviceRepo repositories.ServiceRepository,
	ledger repositories.CapacityLedger,
) *SlotService {
	return &SlotService{
		departmentRepo: departmentRepo,
		serviceRepo:    serviceRepo,
		ledger:         ledger,
		now:            time.Now,
	}
}

// ListDates returns the bookable-dates overview for a department, one entry
// per day from today through the end of its booking window
func (s *SlotService) ListDates(ctx context.Context, departmentID string) ([]entities.DateOverview, error) {
	dept, err := s.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	window := dept.BookingWindowDays
	if window <= 0 {
		window = defaultBookingWindowDays
	}

	today := s.now()
	dates := make([]entities.DateOverview, 0, window)
	for i := 0; i < window; i++ {
		day := today.AddDate(0, 0, i)
		hours, ok := dept.HoursFor(day.Weekday())
		dates = append(dates, entities.DateOverview{
			Date:     day.Format(entities.DateLayout),
			Day:      day.Weekday(),
			IsClosed: !ok || hours.IsClosed,
			IsToday:  i == 0,
			IsPast:   false,
		})
	}
	return dates, nil
}

// ListSlots returns the slot grid for a service on a date, overlaid with live
// ledger consumption. Slots that already started today are omitted.
func (s *SlotService) ListSlots(ctx context.Context, departmentID, serviceID, date string) ([]entities.SlotAvailability, error) {
	dept, svc, err := s.loadServiceScope(ctx, departmentID, serviceID)
	if err != nil {
		return nil, err
	}

	day, err := s.validateDate(dept, date)
	if err != nil {
		return nil, err
	}

	hours, ok := dept.HoursFor(day.Weekday())
	if !ok || hours.IsClosed {
		return nil, apperrors.NewValidationError(fmt.Sprintf("department is closed on %s", date))
	}

	cfg := svc.EffectiveTokenConfig(dept)
	grid := entities.BuildSlotGrid(hours, cfg, date)
	if len(grid) == 0 {
		return nil, nil
	}

	counts, err := s.ledger.SlotCounts(ctx, departmentID, serviceID, date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	isToday := date == now.Format(entities.DateLayout)
	wallClock := now.Format(entities.TimeLayout)

	slots := make([]entities.SlotAvailability, 0, len(grid))
	for _, slot := range grid {
		if isToday && slot.StartTime <= wallClock {
			continue
		}
		count := counts[slot.StartTime]
		slots = append(slots, entities.SlotAvailability{
			Slot:             slot,
			RegularConsumed:  count.Regular,
			PriorityConsumed: count.Priority,
		})
	}
	return slots, nil
}

// loadServiceScope resolves a department and one of its services, rejecting a
// service that belongs to another department
func (s *SlotService) loadServiceScope(ctx context.Context, departmentID, serviceID string) (*entities.Department, *entities.Service, error) {
	dept, err := s.departmentRepo.GetByID(ctx, departmentID)
	if err != nil {
		return nil, nil, err
	}

	svc, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	if svc.DepartmentID != dept.ID {
		return nil, nil, apperrors.NewNotFoundError(
			fmt.Sprintf("service %s does not belong to department %s", serviceID, departmentID))
	}
	return dept, svc, nil
}

// validateDate parses the date and checks it falls inside the booking window
func (s *SlotService) validateDate(dept *entities.Department, date string) (time.Time, error) {
	day, err := time.Parse(entities.DateLayout, date)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}

	window := dept.BookingWindowDays
	if window <= 0 {
		window = defaultBookingWindowDays
	}

	today, err := time.Parse(entities.DateLayout, s.now().Format(entities.DateLayout))
	if err != nil {
		return time.Time{}, apperrors.NewInternalError("failed to truncate current date", err)
	}

	if day.Before(today) {
		return time.Time{}, apperrors.NewValidationError("date is in the past")
	}
	if !day.Before(today.AddDate(0, 0, window)) {
		return time.Time{}, apperrors.NewValidationError(
			fmt.Sprintf("date is outside the %d-day booking window", window))
	}
	return day, nil
}
