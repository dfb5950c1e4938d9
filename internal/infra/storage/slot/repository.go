package slot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"area_id",
	"slot_number",
	"vehicle_class",
	"base_hourly_rate",
	"status",
	"created_at",
	"updated_at",
}

// Repository репозиторий слотов. Переходы статусов выполняются как
// условные UPDATE (compare-and-set): два конкурентных запроса на один
// available слот дают ровно одного победителя, проигравший получает
// ErrSlotConflict
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.ParkingSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("parking_slots").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.ParkingSlot
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.AreaID,
		&s.SlotNumber,
		&s.VehicleClass,
		&s.BaseHourlyRate,
		&s.Status,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// Reserve переводит слот available -> reserved
func (r *Repository) Reserve(ctx context.Context, id int64) error {
	return r.casStatus(ctx, "Reserve", id, domain.SlotReserved, domain.SlotAvailable)
}

// OccupyDirect переводит слот available -> occupied (заезд без брони)
func (r *Repository) OccupyDirect(ctx context.Context, id int64) error {
	return r.casStatus(ctx, "OccupyDirect", id, domain.SlotOccupied, domain.SlotAvailable)
}

// MarkOccupied переводит слот reserved -> occupied (прибытие по брони)
func (r *Repository) MarkOccupied(ctx context.Context, id int64) error {
	return r.casStatus(ctx, "MarkOccupied", id, domain.SlotOccupied, domain.SlotReserved)
}

// Release освобождает слот из reserved или occupied
// Используется при завершении парковки и при no-show отмене
func (r *Repository) Release(ctx context.Context, id int64) error {
	return r.casStatus(ctx, "Release", id, domain.SlotAvailable, domain.SlotReserved, domain.SlotOccupied)
}

// casStatus выполняет условный переход статуса слота
// Ноль затронутых строк означает либо отсутствие слота, либо нарушение
// precondition - различаем отдельным запросом
func (r *Repository) casStatus(ctx context.Context, op string, id int64, to domain.SlotStatus, from ...domain.SlotStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	query, args, err := psqlbuilder.Update("parking_slots").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": fromStrings}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		existsQuery, existsArgs, err := psqlbuilder.Select("1").
			From("parking_slots").
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %s - build exists query: %v", ErrBuildQuery, op, err)
		}

		var one int
		err = executor.QueryRowContext(ctx, existsQuery, existsArgs...).Scan(&one)
		if err == sql.ErrNoRows {
			return ErrSlotNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %s - check existence: %v", ErrExecQuery, op, err)
		}
		return ErrSlotConflict
	}

	return nil
}
