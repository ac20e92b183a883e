package storage

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockDocumentStore is a mock implementation of the DocumentStore interface
type MockDocumentStore struct {
	mock.Mock
}

// Save mocks document persistence
func (m *MockDocumentStore) Save(ctx context.Context, bookingID, filename string, content io.Reader) (string, error) {
	args := m.Called(ctx, bookingID, filename, content)
	return args.String(0), args.Error(1)
}
