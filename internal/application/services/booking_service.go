package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/providers"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
	"github.com/sevadesk/civicbook/pkg/retry"
)

// BookingRequest carries a citizen's admission request. Department, service
// and user come from the route and the verified token, not the body.
type BookingRequest struct {
	DepartmentID string `json:"-"`
	ServiceID    string `json:"-"`
	UserID       string `json:"-"`
	Date         string `json:"date"`
	SlotTime     string `json:"slot_time"`
	PriorityType string `json:"priority_type,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// BookingService handles booking admission and lifecycle logic
type BookingService struct {
	repo           repositories.BookingRepository
	departmentRepo repositories.DepartmentRepository
	serviceRepo    repositories.ServiceRepository
	eventBus       providers.EventBus
	slots          *SlotService

	// reserveMaxAttempts bounds retries of a contended reservation
	reserveMaxAttempts int

	// now is injectable for tests
	now func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	repo repositories.BookingRepository,
	departmentRepo repositories.DepartmentRepository,
	serviceRepo repositories.ServiceRepository,
	eventBus providers.EventBus,
	slots *SlotService,
	reserveMaxAttempts int,
) *BookingService {
	if reserveMaxAttempts <= 0 {
		reserveMaxAttempts = 3
	}
	return &BookingService{
		repo:               repo,
		departmentRepo:     departmentRepo,
		serviceRepo:        serviceRepo,
		eventBus:           eventBus,
		slots:              slots,
		reserveMaxAttempts: reserveMaxAttempts,
		now:                time.Now,
	}
}

// Create validates the request against department configuration, admits it
// through the capacity ledger and returns the booking with its token number.
// Contended reservations are retried a bounded number of times; typed
// admission refusals are returned as-is.
func (s *BookingService) Create(ctx context.Context, req *BookingRequest) (*entities.Booking, error) {
	priority, ok := entities.ParsePriorityType(req.PriorityType)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown priority type %q", req.PriorityType))
	}
	if _, err := time.Parse(entities.TimeLayout, req.SlotTime); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid slot time %q, expected HH:MM", req.SlotTime))
	}

	dept, svc, err := s.slots.loadServiceScope(ctx, req.DepartmentID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	day, err := s.slots.validateDate(dept, req.Date)
	if err != nil {
		return nil, err
	}

	hours, ok := dept.HoursFor(day.Weekday())
	if !ok || hours.IsClosed {
		return nil, apperrors.NewValidationError(fmt.Sprintf("department is closed on %s", req.Date))
	}

	cfg := svc.EffectiveTokenConfig(dept)
	if !slotExists(entities.BuildSlotGrid(hours, cfg, req.Date), req.SlotTime) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("no slot starts at %s on %s", req.SlotTime, req.Date))
	}

	status := entities.BookingStatusUnderReview
	if svc.NeedsDocuments() {
		status = entities.BookingStatusPendingDocs
	}

	booking := &entities.Booking{
		ID:           uuid.New().String(),
		DepartmentID: req.DepartmentID,
		ServiceID:    req.ServiceID,
		UserID:       req.UserID,
		Date:         req.Date,
		SlotTime:     req.SlotTime,
		PriorityType: priority,
		Status:       status,
		Notes:        req.Notes,
	}

	caps := repositories.SlotCaps{
		Capacity:            cfg.MaxTokensPerSlot,
		PriorityCapacity:    entities.PriorityCapacityFor(cfg),
		MaxDailyTokens:      cfg.MaxDailyTokens,
		AllowPriorityTokens: cfg.AllowPriorityTokens,
		AutoStopOnOverload:  cfg.AutoStopOnOverload,
	}

	err = retry.Do(ctx, retry.Config{
		MaxAttempts:   s.reserveMaxAttempts,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		Retryable: func(err error) bool {
			return apperrors.IsType(err, apperrors.ErrorTypeUnavailable)
		},
		OnRetry: func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Str("booking_id", booking.ID).
				Msg("reservation contended, retrying")
		},
	}, func() error {
		return s.repo.AdmitBooking(ctx, booking, caps)
	})
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, err
	}

	s.publish(ctx, booking, entities.BookingEventCreated, "")
	return booking, nil
}

// GetForUser retrieves a booking owned by the given user
func (s *BookingService) GetForUser(ctx context.Context, id, userID string) (*entities.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperrors.NewUnauthorizedError("booking belongs to another user")
	}
	return booking, nil
}

// Get retrieves a booking without an ownership check; officer use only
func (s *BookingService) Get(ctx context.Context, id string) (*entities.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser retrieves a citizen's bookings
func (s *BookingService) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return s.repo.ListByUser(ctx, userID, filter)
}

// ListByDepartment retrieves a department's bookings; officer use only
func (s *BookingService) ListByDepartment(ctx context.Context, departmentID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return s.repo.ListByDepartment(ctx, departmentID, filter)
}

// Cancel moves the caller's booking to CANCELLED and returns its token to the
// ledger. Terminal bookings cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, id, userID string) (*entities.Booking, error) {
	booking, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, booking)
}

// CancelByOfficer cancels any citizen's booking; officer use only
func (s *BookingService) CancelByOfficer(ctx context.Context, id string) (*entities.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, booking)
}

func (s *BookingService) cancel(ctx context.Context, booking *entities.Booking) (*entities.Booking, error) {
	if !booking.Status.CanTransitionTo(entities.BookingStatusCancelled) {
		return nil, apperrors.NewInvalidTransitionError(string(booking.Status), string(entities.BookingStatusCancelled))
	}

	if err := s.repo.CancelWithRelease(ctx, booking); err != nil {
		return nil, err
	}
	booking.Status = entities.BookingStatusCancelled

	s.publish(ctx, booking, entities.BookingEventCancelled, "")
	return booking, nil
}

func (s *BookingService) publish(ctx context.Context, booking *entities.Booking, eventType entities.BookingEventType, reason string) {
	publishBookingEvent(ctx, s.eventBus, booking, eventType, reason, s.now())
}

// publishBookingEvent fans a lifecycle event out to the firehose, department
// and user channels. Event delivery is best-effort; a bus failure never fails
// the request that caused it.
func publishBookingEvent(ctx context.Context, bus providers.EventBus, booking *entities.Booking, eventType entities.BookingEventType, reason string, now time.Time) {
	if bus == nil {
		return
	}

	event := &entities.BookingEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		BookingID:    booking.ID,
		DepartmentID: booking.DepartmentID,
		ServiceID:    booking.ServiceID,
		UserID:       booking.UserID,
		Status:       booking.Status,
		Reason:       reason,
		Timestamp:    now,
	}

	channels := []string{
		providers.EventChannelBookingUpdates,
		providers.GetDepartmentChannel(booking.DepartmentID),
		providers.GetUserChannel(booking.UserID),
	}
	for _, channel := range channels {
		if err := bus.Publish(ctx, channel, event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Str("booking_id", booking.ID).
				Msg("failed to publish booking event")
		}
	}
}

func slotExists(grid []entities.Slot, startTime string) bool {
	for _, slot := range grid {
		if slot.StartTime == startTime {
			return true
		}
	}
	return false
}
