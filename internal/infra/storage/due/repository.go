package due

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

var dueColumns = []string{
	"id",
	"user_id",
	"vehicle_id",
	"booking_id",
	"amount",
	"is_paid",
	"created_at",
	"updated_at",
}

// Repository репозиторий задолженностей (outstanding dues)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория задолженностей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую задолженность
// Вызывается только когда немедленное списание штрафа не удалось
func (r *Repository) Create(ctx context.Context, d *domain.OutstandingDue) (*domain.OutstandingDue, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("outstanding_dues").
		Columns(
			"user_id",
			"vehicle_id",
			"booking_id",
			"amount",
			"is_paid",
		).
		Values(
			d.UserID,
			d.VehicleID,
			d.BookingID,
			d.Amount,
			d.IsPaid,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&d.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	return d, nil
}

// GetUnpaidByUserID получает непогашенные задолженности пользователя
// Порядок стабильный (по ID), чтобы суммирование было идемпотентным
func (r *Repository) GetUnpaidByUserID(ctx context.Context, userID int64) ([]*domain.OutstandingDue, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(dueColumns...).
		From("outstanding_dues").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"is_paid": false}).
		OrderBy("id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetUnpaidByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetUnpaidByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	dues := make([]*domain.OutstandingDue, 0)
	for rows.Next() {
		var d domain.OutstandingDue
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.VehicleID,
			&d.BookingID,
			&d.Amount,
			&d.IsPaid,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetUnpaidByUserID - scan row: %v", ErrScanRow, err)
		}

		d.CreatedAt = createdAt.Time
		d.UpdatedAt = updatedAt.Time
		dues = append(dues, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetUnpaidByUserID - rows error: %v", ErrScanRow, err)
	}

	return dues, nil
}

// MarkPaid помечает задолженность погашенной
// Условие is_paid = false защищает от повторного погашения
func (r *Repository) MarkPaid(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outstanding_dues").
		Set("is_paid", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"is_paid": false}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkPaid - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkPaid - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkPaid - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrDueNotFound
	}

	return nil
}
