package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/postgres"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
)

// DepartmentAdapter implements the department and service repositories
type DepartmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDepartmentAdapter creates a new department adapter
func NewDepartmentAdapter(client *postgres.Client) repositories.DepartmentRepository {
	return &DepartmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a department with its working hours and token configuration
func (a *DepartmentAdapter) GetByID(ctx context.Context, id string) (*entities.Department, error) {
	query, args, err := a.db.Select(
		"id", "name", "booking_window_days", "working_hours", "token_config",
		"created_at", "updated_at",
	).From("departments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build department query", err)
	}

	dept, err := scanDepartment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("department with id %s not found", id))
	}
	if err != nil {
		return nil, mapStoreError("failed to get department", err)
	}
	return dept, nil
}

// List retrieves all departments
func (a *DepartmentAdapter) List(ctx context.Context) ([]*entities.Department, error) {
	query, args, err := a.db.Select(
		"id", "name", "booking_window_days", "working_hours", "token_config",
		"created_at", "updated_at",
	).From("departments").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build departments query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError("failed to list departments", err)
	}
	defer rows.Close()

	var departments []*entities.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan department", err)
		}
		departments = append(departments, dept)
	}
	return departments, rows.Err()
}

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new service adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a single service
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, args, err := a.db.Select(
		"id", "department_id", "name", "description", "requires_documents",
		"required_documents", "token_config", "created_at", "updated_at",
	).From("services").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build service query", err)
	}

	svc, err := scanService(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	if err != nil {
		return nil, mapStoreError("failed to get service", err)
	}
	return svc, nil
}

// ListByDepartment retrieves all services offered by a department
func (a *ServiceAdapter) ListByDepartment(ctx context.Context, departmentID string) ([]*entities.Service, error) {
	query, args, err := a.db.Select(
		"id", "department_id", "name", "description", "requires_documents",
		"required_documents", "token_config", "created_at", "updated_at",
	).From("services").
		Where(goqu.Ex{"department_id": departmentID}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build services query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError("failed to list services", err)
	}
	defer rows.Close()

	var services []*entities.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan service", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func scanDepartment(row rowScanner) (*entities.Department, error) {
	dept := &entities.Department{}
	var workingHours, tokenConfig []byte

	err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.BookingWindowDays,
		&workingHours,
		&tokenConfig,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(workingHours, &dept.WorkingHours); err != nil {
		return nil, fmt.Errorf("invalid working hours payload: %w", err)
	}
	if err := json.Unmarshal(tokenConfig, &dept.TokenConfig); err != nil {
		return nil, fmt.Errorf("invalid token config payload: %w", err)
	}
	return dept, nil
}

func scanService(row rowScanner) (*entities.Service, error) {
	svc := &entities.Service{}
	var description sql.NullString
	var requiredDocs, tokenConfig []byte

	err := row.Scan(
		&svc.ID,
		&svc.DepartmentID,
		&svc.Name,
		&description,
		&svc.RequiresDocuments,
		&requiredDocs,
		&tokenConfig,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	svc.Description = description.String
	if len(requiredDocs) > 0 {
		if err := json.Unmarshal(requiredDocs, &svc.RequiredDocuments); err != nil {
			return nil, fmt.Errorf("invalid required documents payload: %w", err)
		}
	}
	if len(tokenConfig) > 0 {
		if err := json.Unmarshal(tokenConfig, &svc.TokenConfig); err != nil {
			return nil, fmt.Errorf("invalid token config payload: %w", err)
		}
	}
	return svc, nil
}
