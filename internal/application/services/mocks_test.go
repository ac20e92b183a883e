package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
)

// MockBookingRepository is a mock implementation of the BookingRepository interface
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) AdmitBooking(ctx context.Context, booking *entities.Booking, caps repositories.SlotCaps) error {
	args := m.Called(ctx, booking, caps)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByDepartment(ctx context.Context, departmentID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, departmentID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, reason string) error {
	args := m.Called(ctx, id, from, to, reason)
	return args.Error(0)
}

func (m *MockBookingRepository) CancelWithRelease(ctx context.Context, booking *entities.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) AddDocument(ctx context.Context, doc *entities.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdateDocumentStatus(ctx context.Context, bookingID, documentID string, status entities.DocumentStatus, reason string) error {
	args := m.Called(ctx, bookingID, documentID, status, reason)
	return args.Error(0)
}

// MockDepartmentRepository is a mock implementation of the DepartmentRepository interface
type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Department), args.Error(1)
}

func (m *MockDepartmentRepository) List(ctx context.Context) ([]*entities.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Department), args.Error(1)
}

// MockServiceRepository is a mock implementation of the ServiceRepository interface
type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) ListByDepartment(ctx context.Context, departmentID string) ([]*entities.Service, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

// MockCapacityLedger is a mock implementation of the CapacityLedger interface
type MockCapacityLedger struct {
	mock.Mock
}

func (m *MockCapacityLedger) Reserve(ctx context.Context, key repositories.SlotKey, caps repositories.SlotCaps, priority entities.PriorityType) (int, error) {
	args := m.Called(ctx, key, caps, priority)
	return args.Int(0), args.Error(1)
}

func (m *MockCapacityLedger) Release(ctx context.Context, key repositories.SlotKey, priority entities.PriorityType) error {
	args := m.Called(ctx, key, priority)
	return args.Error(0)
}

func (m *MockCapacityLedger) SlotCounts(ctx context.Context, departmentID, serviceID, date string) (map[string]repositories.SlotCount, error) {
	args := m.Called(ctx, departmentID, serviceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]repositories.SlotCount), args.Error(1)
}

func (m *MockCapacityLedger) DailyConsumed(ctx context.Context, departmentID, date string) (int, error) {
	args := m.Called(ctx, departmentID, date)
	return args.Int(0), args.Error(1)
}

// MockEventBus is a mock implementation of the EventBus interface
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.BookingEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}
