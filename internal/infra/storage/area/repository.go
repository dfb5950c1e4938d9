package area

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий парковочных зон
// Зоны управляются внешним сервисом владельцев, здесь только чтение
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория зон
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает парковочную зону по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.ParkingArea, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"capacity_small",
		"capacity_medium",
		"capacity_large",
		"reservation_rate_multipliers",
		"grace_period_minutes",
		"reservation_waiver_minutes",
		"current_tier_small",
		"current_tier_medium",
		"current_tier_large",
		"created_at",
		"updated_at",
	).
		From("parking_areas").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.ParkingArea
	var multipliers pq.Float64Array
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.Name,
		&a.CapacitySmall,
		&a.CapacityMedium,
		&a.CapacityLarge,
		&multipliers,
		&a.GracePeriodMinutes,
		&a.ReservationWaiverMinutes,
		&a.CurrentTierSmall,
		&a.CurrentTierMedium,
		&a.CurrentTierLarge,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan area: %v", ErrScanRow, err)
	}

	a.ReservationRateMultipliers = []float64(multipliers)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}
