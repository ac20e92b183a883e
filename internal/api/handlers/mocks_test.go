package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) AdmitBooking(ctx context.Context, booking *entities.Booking, caps repositories.SlotCaps) error {
	args := m.Called(ctx, booking, caps)
	return args.Error(0)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *mockBookingRepo) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *mockBookingRepo) ListByDepartment(ctx context.Context, departmentID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, departmentID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, reason string) error {
	args := m.Called(ctx, id, from, to, reason)
	return args.Error(0)
}

func (m *mockBookingRepo) CancelWithRelease(ctx context.Context, booking *entities.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockBookingRepo) AddDocument(ctx context.Context, doc *entities.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockBookingRepo) UpdateDocumentStatus(ctx context.Context, bookingID, documentID string, status entities.DocumentStatus, reason string) error {
	args := m.Called(ctx, bookingID, documentID, status, reason)
	return args.Error(0)
}

type mockDepartmentRepo struct {
	mock.Mock
}

func (m *mockDepartmentRepo) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]*entities.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Department), args.Error(1)
}

type mockServiceRepo struct {
	mock.Mock
}

func (m *mockServiceRepo) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *mockServiceRepo) ListByDepartment(ctx context.Context, departmentID string) ([]*entities.Service, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Reserve(ctx context.Context, key repositories.SlotKey, caps repositories.SlotCaps, priority entities.PriorityType) (int, error) {
	args := m.Called(ctx, key, caps, priority)
	return args.Int(0), args.Error(1)
}

func (m *mockLedger) Release(ctx context.Context, key repositories.SlotKey, priority entities.PriorityType) error {
	args := m.Called(ctx, key, priority)
	return args.Error(0)
}

func (m *mockLedger) SlotCounts(ctx context.Context, departmentID, serviceID, date string) (map[string]repositories.SlotCount, error) {
	args := m.Called(ctx, departmentID, serviceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]repositories.SlotCount), args.Error(1)
}

func (m *mockLedger) DailyConsumed(ctx context.Context, departmentID, date string) (int, error) {
	args := m.Called(ctx, departmentID, date)
	return args.Int(0), args.Error(1)
}

func testDepartment() *entities.Department {
	hours := make([]entities.WorkingHours, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		hours = append(hours, entities.WorkingHours{
			Day:       day,
			OpenTime:  "09:00",
			CloseTime: "12:00",
		})
	}
	return &entities.Department{
		ID:                "dept-1",
		Name:              "Transport Office",
		BookingWindowDays: 3,
		WorkingHours:      hours,
		TokenConfig: entities.TokenManagementConfig{
			SlotIntervalMinutes: 60,
			MaxDailyTokens:      50,
			QueueType:           entities.QueueTypeHybrid,
			MaxTokensPerSlot:    10,
			AllowPriorityTokens: true,
			PriorityPercentage:  20,
			AutoStopOnOverload:  true,
		},
	}
}

func testBookableService() *entities.Service {
	return &entities.Service{
		ID:                "svc-1",
		DepartmentID:      "dept-1",
		Name:              "License Renewal",
		RequiresDocuments: true,
		RequiredDocuments: []entities.RequiredDocument{
			{Name: "identity_proof", Mandatory: true},
		},
	}
}
