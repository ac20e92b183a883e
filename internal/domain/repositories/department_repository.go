package repositories

import (
	"context"

	"github.com/sevadesk/civicbook/internal/domain/entities"
)

// DepartmentRepository is the read path onto department configuration. The
// booking engine never mutates departments; they are owned by the external
// department service.
type DepartmentRepository interface {
	// GetByID retrieves a department with its working hours and token config
	GetByID(ctx context.Context, id string) (*entities.Department, error)

	// List retrieves all departments
	List(ctx context.Context) ([]*entities.Department, error)
}

// ServiceRepository is the read path onto service configuration
type ServiceRepository interface {
	// GetByID retrieves a service with its required documents
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// ListByDepartment retrieves all services of a department
	ListByDepartment(ctx context.Context, departmentID string) ([]*entities.Service, error)
}
