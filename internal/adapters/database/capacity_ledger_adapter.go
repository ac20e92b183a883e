package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sevadesk/civicbook/internal/domain/entities"
	"github.com/sevadesk/civicbook/internal/domain/repositories"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/postgres"
	apperrors "github.com/sevadesk/civicbook/pkg/errors"
)

// dialect builds SQL without a bound connection so the same statements can run
// inside any transaction
var dialect = goqu.Dialect("postgres")

// LedgerAdapter implements the CapacityLedger interface on Postgres. Every
// mutation is a single guarded INSERT ... ON CONFLICT DO UPDATE ... WHERE
// statement, so admission is serialized by the database under concurrency and
// a counter can never pass its configured cap.
type LedgerAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewLedgerAdapter creates a new capacity ledger adapter
func NewLedgerAdapter(client *postgres.Client) *LedgerAdapter {
	return &LedgerAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Reserve admits one booking against the slot and daily limits and returns
// the assigned token number
func (a *LedgerAdapter) Reserve(ctx context.Context, key repositories.SlotKey, caps repositories.SlotCaps, priority entities.PriorityType) (int, error) {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return 0, mapStoreError("failed to begin reservation", err)
	}

	token, err := reserveInTx(ctx, tx, key, caps, priority)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, mapStoreError("failed to commit reservation", err)
	}
	return token, nil
}

// Release returns one consumed token to the slot's pool. Counters never drop
// below zero, which keeps release idempotent.
func (a *LedgerAdapter) Release(ctx context.Context, key repositories.SlotKey, priority entities.PriorityType) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return mapStoreError("failed to begin release", err)
	}

	if err := releaseInTx(ctx, tx, key, priority); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapStoreError("failed to commit release", err)
	}
	return nil
}

// SlotCounts returns live consumption for every ledgered slot of a service on
// a date, keyed by slot start time
func (a *LedgerAdapter) SlotCounts(ctx context.Context, departmentID, serviceID, date string) (map[string]repositories.SlotCount, error) {
	query, args, err := a.db.Select("slot_time", "regular_consumed", "priority_consumed").
		From("slot_ledgers").
		Where(goqu.Ex{
			"department_id": departmentID,
			"service_id":    serviceID,
			"date":          date,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build slot counts query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError("failed to query slot counts", err)
	}
	defer rows.Close()

	counts := make(map[string]repositories.SlotCount)
	for rows.Next() {
		var slotTime string
		var count repositories.SlotCount
		if err := rows.Scan(&slotTime, &count.Regular, &count.Priority); err != nil {
			return nil, apperrors.NewInternalError("failed to scan slot count", err)
		}
		counts[slotTime] = count
	}
	return counts, rows.Err()
}

// DailyConsumed returns the department-wide token count for a date
func (a *LedgerAdapter) DailyConsumed(ctx context.Context, departmentID, date string) (int, error) {
	query, args, err := a.db.Select("consumed").
		From("daily_ledgers").
		Where(goqu.Ex{"department_id": departmentID, "date": date}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build daily count query", err)
	}

	var consumed int
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&consumed)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, mapStoreError("failed to query daily count", err)
	}
	return consumed, nil
}

// reserveInTx runs the full admission sequence inside the caller's
// transaction: daily limit, slot pool, token counter. The booking adapter
// shares it so the booking row commits together with its reservation.
func reserveInTx(ctx context.Context, tx *sql.Tx, key repositories.SlotKey, caps repositories.SlotCaps, priority entities.PriorityType) (int, error) {
	if priority.IsPriority() && !caps.AllowPriorityTokens {
		return 0, apperrors.NewAdmissionError(apperrors.AdmissionPriorityNotAllowed,
			"priority tokens are not allowed for this service")
	}

	if err := reserveDaily(ctx, tx, key.DepartmentID, key.Date, caps); err != nil {
		return 0, err
	}
	if err := reserveSlot(ctx, tx, key, caps, priority); err != nil {
		return 0, err
	}
	return nextTokenNumber(ctx, tx, key.DepartmentID, key.ServiceID, key.Date)
}

// releaseInTx undoes one reservation inside the caller's transaction
func releaseInTx(ctx context.Context, tx *sql.Tx, key repositories.SlotKey, priority entities.PriorityType) error {
	counter := "regular_consumed"
	if priority.IsPriority() {
		counter = "priority_consumed"
	}

	query, args, err := dialect.Update("slot_ledgers").
		Set(goqu.Record{counter: goqu.L(fmt.Sprintf("GREATEST(slot_ledgers.%s - 1, 0)", counter))}).
		Where(goqu.Ex{
			"department_id": key.DepartmentID,
			"service_id":    key.ServiceID,
			"date":          key.Date,
			"slot_time":     key.SlotTime,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build slot release query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapStoreError("failed to release slot token", err)
	}

	query, args, err = dialect.Update("daily_ledgers").
		Set(goqu.Record{"consumed": goqu.L("GREATEST(daily_ledgers.consumed - 1, 0)")}).
		Where(goqu.Ex{"department_id": key.DepartmentID, "date": key.Date}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build daily release query", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapStoreError("failed to release daily token", err)
	}
	return nil
}

// reserveDaily increments the department-wide counter for the date. With
// auto-stop enabled the increment is guarded by the daily limit; otherwise
// the limit is advisory and only logged.
func reserveDaily(ctx context.Context, tx *sql.Tx, departmentID, date string, caps repositories.SlotCaps) error {
	enforced := caps.AutoStopOnOverload && caps.MaxDailyTokens > 0

	upsert := goqu.DoUpdate("department_id,date", goqu.Record{
		"consumed": goqu.L("daily_ledgers.consumed + 1"),
	})
	if enforced {
		upsert = upsert.Where(goqu.L("daily_ledgers.consumed < ?", caps.MaxDailyTokens))
	}

	query, args, err := dialect.Insert("daily_ledgers").
		Rows(goqu.Record{
			"department_id": departmentID,
			"date":          date,
			"consumed":      1,
		}).
		OnConflict(upsert).
		Returning("consumed").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build daily reserve query", err)
	}

	var consumed int
	err = tx.QueryRowContext(ctx, query, args...).Scan(&consumed)
	if err == sql.ErrNoRows {
		return apperrors.NewAdmissionError(apperrors.AdmissionDailyLimitReached,
			"department daily token limit reached")
	}
	if err != nil {
		return mapStoreError("failed to reserve daily token", err)
	}

	if !enforced && caps.MaxDailyTokens > 0 && consumed > caps.MaxDailyTokens {
		log.Warn().
			Str("department_id", departmentID).
			Str("date", date).
			Int("consumed", consumed).
			Int("max_daily_tokens", caps.MaxDailyTokens).
			Msg("daily token limit exceeded (auto-stop disabled)")
	}
	return nil
}

// reserveSlot increments the slot pool counter matching the priority type.
// Regular and priority pools are mutually exclusive; neither may dip into the
// other's quota.
func reserveSlot(ctx context.Context, tx *sql.Tx, key repositories.SlotKey, caps repositories.SlotCaps, priority entities.PriorityType) error {
	regularCapacity := caps.Capacity - caps.PriorityCapacity

	var counter string
	var limit int
	var full *apperrors.AppError
	initial := goqu.Record{
		"department_id":     key.DepartmentID,
		"service_id":        key.ServiceID,
		"date":              key.Date,
		"slot_time":         key.SlotTime,
		"regular_consumed":  0,
		"priority_consumed": 0,
	}

	if priority.IsPriority() {
		counter = "priority_consumed"
		limit = caps.PriorityCapacity
		full = apperrors.NewAdmissionError(apperrors.AdmissionPriorityQuotaExhausted,
			"priority quota for this slot is exhausted")
	} else {
		counter = "regular_consumed"
		limit = regularCapacity
		full = apperrors.NewAdmissionError(apperrors.AdmissionSlotFull,
			"no regular tokens remain for this slot")
	}
	if limit <= 0 {
		return full
	}
	initial[counter] = 1

	query, args, err := dialect.Insert("slot_ledgers").
		Rows(initial).
		OnConflict(
			goqu.DoUpdate("department_id,service_id,date,slot_time", goqu.Record{
				counter: goqu.L(fmt.Sprintf("slot_ledgers.%s + 1", counter)),
			}).Where(goqu.L(fmt.Sprintf("slot_ledgers.%s < ?", counter), limit)),
		).
		Returning(counter).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build slot reserve query", err)
	}

	var consumed int
	err = tx.QueryRowContext(ctx, query, args...).Scan(&consumed)
	if err == sql.ErrNoRows {
		return full
	}
	if err != nil {
		return mapStoreError("failed to reserve slot token", err)
	}
	return nil
}

// nextTokenNumber advances the sequential token counter scoped to
// department+service+date, starting at 1 each day
func nextTokenNumber(ctx context.Context, tx *sql.Tx, departmentID, serviceID, date string) (int, error) {
	query, args, err := dialect.Insert("token_counters").
		Rows(goqu.Record{
			"department_id": departmentID,
			"service_id":    serviceID,
			"date":          date,
			"last_token":    1,
		}).
		OnConflict(
			goqu.DoUpdate("department_id,service_id,date", goqu.Record{
				"last_token": goqu.L("token_counters.last_token + 1"),
			}),
		).
		Returning("last_token").
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build token counter query", err)
	}

	var token int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&token); err != nil {
		return 0, mapStoreError("failed to advance token counter", err)
	}
	return token, nil
}

// mapStoreError classifies storage failures. Serialization conflicts,
// deadlocks, lock timeouts, connection failures and context timeouts are
// retryable; everything else is internal.
func mapStoreError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewUnavailableError(message, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "40001", "40P01", "55P03":
			return apperrors.NewUnavailableError(message, err)
		}
		if pqErr.Code.Class() == "08" {
			return apperrors.NewUnavailableError(message, err)
		}
	}
	return apperrors.NewInternalError(message, err)
}
