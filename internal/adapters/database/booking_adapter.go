package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/postgres"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
)

var bookingColumns = []interface{}{
	"id", "department_id", "service_id", "user_id", "date", "slot_time",
	"token_number", "priority_type", "status", "notes", "rejection_reason",
	"created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// AdmitBooking reserves capacity and inserts the booking row in one
// transaction. Exactly one ledger increment and one booking row are committed
// together; if either fails, both roll back.
func (a *BookingAdapter) AdmitBooking(ctx context.Context, booking *entities.Booking, caps repositories.SlotCaps) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return mapStoreError("failed to begin admission", err)
	}

	key := repositories.SlotKey{
		DepartmentID: booking.DepartmentID,
		ServiceID:    booking.ServiceID,
		Date:         booking.Date,
		SlotTime:     booking.SlotTime,
	}

	token, err := reserveInTx(ctx, tx, key, caps, booking.PriorityType)
	if err != nil {
		tx.Rollback()
		return err
	}

	booking.TokenNumber = token
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	query, args, err := dialect.Insert("bookings").Rows(goqu.Record{
		"id":               booking.ID,
		"department_id":    booking.DepartmentID,
		"service_id":       booking.ServiceID,
		"user_id":          booking.UserID,
		"date":             booking.Date,
		"slot_time":        booking.SlotTime,
		"token_number":     booking.TokenNumber,
		"priority_type":    booking.PriorityType,
		"status":           booking.Status,
		"notes":            booking.Notes,
		"rejection_reason": booking.RejectionReason,
		"created_at":       booking.CreatedAt,
		"updated_at":       booking.UpdatedAt,
	}).ToSQL()
	if err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to build booking insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return mapStoreError("failed to insert booking", err)
	}

	if err := tx.Commit(); err != nil {
		return mapStoreError("failed to commit admission", err)
	}
	return nil
}

// GetByID retrieves a booking with its documents
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build booking query", err)
	}

	booking, err := scanBooking(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, mapStoreError("failed to get booking", err)
	}

	docs, err := a.listDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	booking.Documents = docs
	return booking, nil
}

// ListByUser retrieves bookings for a user
func (a *BookingAdapter) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return a.list(ctx, goqu.Ex{"user_id": userID}, filter)
}

// ListByDepartment retrieves bookings for a department
func (a *BookingAdapter) ListByDepartment(ctx context.Context, departmentID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return a.list(ctx, goqu.Ex{"department_id": departmentID}, filter)
}

func (a *BookingAdapter) list(ctx context.Context, scope goqu.Ex, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.db.Select(bookingColumns...).From("bookings").Where(scope)

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.Date != "" {
		ds = ds.Where(goqu.Ex{"date": filter.Date})
	}

	ds = ds.Order(goqu.I("date").Desc(), goqu.I("slot_time").Asc(), goqu.I("token_number").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build booking list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError("failed to list bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// UpdateStatus performs a compare-and-set status transition. A concurrent
// transition loses the race and surfaces as an invalid-transition error.
func (a *BookingAdapter) UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, reason string) error {
	record := goqu.Record{
		"status":     to,
		"updated_at": time.Now(),
	}
	if reason != "" {
		record["rejection_reason"] = reason
	}

	query, args, err := a.db.Update("bookings").
		Set(record).
		Where(goqu.Ex{"id": id, "status": from}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return mapStoreError("failed to update booking status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return a.explainFailedTransition(ctx, id, to)
	}
	return nil
}

// CancelWithRelease atomically cancels the booking and returns its token to
// the ledger. The guarded status update drives the release: a booking that
// already left the expected state releases nothing, so repeated cancellation
// has no further ledger effect.
func (a *BookingAdapter) CancelWithRelease(ctx context.Context, booking *entities.Booking) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return mapStoreError("failed to begin cancellation", err)
	}

	query, args, err := dialect.Update("bookings").
		Set(goqu.Record{
			"status":     entities.BookingStatusCancelled,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": booking.ID, "status": booking.Status}).
		ToSQL()
	if err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return mapStoreError("failed to cancel booking", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		tx.Rollback()
		return a.explainFailedTransition(ctx, booking.ID, entities.BookingStatusCancelled)
	}

	key := repositories.SlotKey{
		DepartmentID: booking.DepartmentID,
		ServiceID:    booking.ServiceID,
		Date:         booking.Date,
		SlotTime:     booking.SlotTime,
	}
	if err := releaseInTx(ctx, tx, key, booking.PriorityType); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapStoreError("failed to commit cancellation", err)
	}
	return nil
}

// AddDocument appends a submitted document to a booking
func (a *BookingAdapter) AddDocument(ctx context.Context, doc *entities.Document) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	query, args, err := a.db.Insert("booking_documents").Rows(goqu.Record{
		"id":               doc.ID,
		"booking_id":       doc.BookingID,
		"name":             doc.Name,
		"document_url":     doc.DocumentURL,
		"status":           doc.Status,
		"rejection_reason": doc.RejectionReason,
		"created_at":       doc.CreatedAt,
		"updated_at":       doc.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build document insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return mapStoreError("failed to insert document", err)
	}
	return nil
}

// UpdateDocumentStatus records an officer's verdict on one document
func (a *BookingAdapter) UpdateDocumentStatus(ctx context.Context, bookingID, documentID string, status entities.DocumentStatus, reason string) error {
	query, args, err := a.db.Update("booking_documents").
		Set(goqu.Record{
			"status":           status,
			"rejection_reason": reason,
			"updated_at":       time.Now(),
		}).
		Where(goqu.Ex{"id": documentID, "booking_id": bookingID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build document update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return mapStoreError("failed to update document status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("document %s not found on booking %s", documentID, bookingID))
	}
	return nil
}

// explainFailedTransition distinguishes a missing booking from a lost
// compare-and-set race
func (a *BookingAdapter) explainFailedTransition(ctx context.Context, id string, to entities.BookingStatus) error {
	query, args, err := a.db.Select("status").From("bookings").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status lookup", err)
	}

	var current string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&current)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return mapStoreError("failed to look up booking status", err)
	}
	return apperrors.NewInvalidTransitionError(current, string(to))
}

func (a *BookingAdapter) listDocuments(ctx context.Context, bookingID string) ([]entities.Document, error) {
	query, args, err := a.db.Select(
		"id", "booking_id", "name", "document_url", "status",
		"rejection_reason", "created_at", "updated_at",
	).From("booking_documents").
		Where(goqu.Ex{"booking_id": bookingID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build documents query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError("failed to list documents", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		var doc entities.Document
		var reason sql.NullString
		if err := rows.Scan(
			&doc.ID, &doc.BookingID, &doc.Name, &doc.DocumentURL,
			&doc.Status, &reason, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan document", err)
		}
		doc.RejectionReason = reason.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// rowScanner lets scanBooking work with both QueryRow and Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*entities.Booking, error) {
	booking := &entities.Booking{}
	var notes, rejectionReason sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.DepartmentID,
		&booking.ServiceID,
		&booking.UserID,
		&booking.Date,
		&booking.SlotTime,
		&booking.TokenNumber,
		&booking.PriorityType,
		&booking.Status,
		&notes,
		&rejectionReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Notes = notes.String
	booking.RejectionReason = rejectionReason.String
	return booking, nil
}
