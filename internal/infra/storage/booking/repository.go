package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Колонки таблицы bookings в порядке сканирования
var bookingColumns = []string{
	"id",
	"user_id",
	"vehicle_id",
	"slot_id",
	"area_id",
	"status",
	"reservation_time",
	"expected_end_time",
	"arrival_time",
	"departure_time",
	"hourly_reservation_rate_snapshot",
	"hourly_parking_rate_snapshot",
	"final_reservation_fee",
	"final_parking_fee",
	"amount_paid",
	"amount_pending",
	"exit_token",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Используется внутри сериализуемой транзакции usecase создания брони,
// чтобы проверка доступности слота и вставка были атомарны
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"user_id",
			"vehicle_id",
			"slot_id",
			"area_id",
			"status",
			"reservation_time",
			"expected_end_time",
			"arrival_time",
			"hourly_reservation_rate_snapshot",
			"hourly_parking_rate_snapshot",
			"amount_paid",
			"amount_pending",
		).
		Values(
			b.UserID,
			b.VehicleID,
			b.SlotID,
			b.AreaID,
			b.Status,
			b.ReservationTime,
			b.ExpectedEndTime,
			b.ArrivalTime,
			b.HourlyReservationRateSnapshot,
			b.HourlyParkingRateSnapshot,
			b.AmountPaid,
			b.AmountPending,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции блокирует строку (FOR UPDATE), чтобы прибытие и
// expiry sweep на одной брони не прошли одновременно
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// GetActiveByVehicleID получает нетерминальное бронирование транспорта
// Возвращает ErrBookingNotFound, если активной брони нет
func (r *Repository) GetActiveByVehicleID(ctx context.Context, vehicleID int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	activeStatusStrings := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		activeStatusStrings[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.Eq{"status": activeStatusStrings}).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByVehicleID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByVehicleID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// GetByUserID получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("reservation_time DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListExpiredReservedIDs возвращает ID броней в статусе reserved с
// истекшим дедлайном прибытия. Выполняется вне транзакции - каждая
// бронь затем обрабатывается sweep'ом в собственной транзакции с
// повторной проверкой precondition под блокировкой
func (r *Repository) ListExpiredReservedIDs(ctx context.Context, now time.Time) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id").
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusReserved}).
		Where(squirrel.Lt{"expected_end_time": now}).
		OrderBy("expected_end_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredReservedIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredReservedIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListExpiredReservedIDs - scan id: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListExpiredReservedIDs - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

// RecordArrival переводит бронь reserved -> active_parking (CAS по статусу)
// Фиксирует время прибытия, снимает дедлайн и итоговую плату за бронь
func (r *Repository) RecordArrival(ctx context.Context, id int64, arrivalTime time.Time, reservationFee decimal.Decimal) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusActiveParking).
		Set("arrival_time", arrivalTime).
		Set("expected_end_time", nil).
		Set("final_reservation_fee", reservationFee).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusReserved}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: RecordArrival - build update query: %v", ErrBuildQuery, err)
	}

	return r.execCAS(ctx, executor, "RecordArrival", id, query, args)
}

// Complete переводит бронь active_parking -> completed (CAS по статусу)
func (r *Repository) Complete(ctx context.Context, id int64, departureTime time.Time, parkingFee, amountPaid decimal.Decimal, exitToken string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCompleted).
		Set("departure_time", departureTime).
		Set("final_parking_fee", parkingFee).
		Set("amount_paid", amountPaid).
		Set("amount_pending", decimal.Zero).
		Set("exit_token", exitToken).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusActiveParking}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Complete - build update query: %v", ErrBuildQuery, err)
	}

	return r.execCAS(ctx, executor, "Complete", id, query, args)
}

// CancelNoShow переводит бронь reserved -> cancelled_no_show (CAS по статусу)
// Штраф записывается как final_reservation_fee; amount_paid/amount_pending
// отражают исход списания (оплачен сразу либо отложен в outstanding dues)
func (r *Repository) CancelNoShow(ctx context.Context, id int64, penalty, amountPaid, amountPending decimal.Decimal) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelledNoShow).
		Set("final_reservation_fee", penalty).
		Set("final_parking_fee", decimal.Zero).
		Set("amount_paid", amountPaid).
		Set("amount_pending", amountPending).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.StatusReserved}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CancelNoShow - build update query: %v", ErrBuildQuery, err)
	}

	return r.execCAS(ctx, executor, "CancelNoShow", id, query, args)
}

// UpdateFinancials обновляет оплаченную и отложенную суммы брони
// Используется при погашении outstanding due: сумма долга зачисляется
// в amount_paid породившей его брони, amount_pending обнуляется
func (r *Repository) UpdateFinancials(ctx context.Context, id int64, amountPaid, amountPending decimal.Decimal) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("amount_paid", amountPaid).
		Set("amount_pending", amountPending).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateFinancials - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateFinancials - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateFinancials - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// execCAS выполняет CAS-обновление статуса
// При нуле затронутых строк различает "бронь не найдена" и
// "precondition по статусу не прошел" (конкурентный переход)
func (r *Repository) execCAS(ctx context.Context, executor DBExecutor, op string, id int64, query string, args []interface{}) error {
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
			From("bookings").
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %s - build exists query: %v", ErrBuildQuery, op, err)
		}

		var one int
		err = executor.QueryRowContext(ctx, existsQuery, existsArgs...).Scan(&one)
		if err == sql.ErrNoRows {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %s - check existence: %v", ErrExecQuery, op, err)
		}
		return ErrStatusConflict
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку в бронирование
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var expectedEnd, arrival, departure, createdAt, updatedAt sql.NullTime
	var finalReservationFee, finalParkingFee decimal.NullDecimal
	var exitToken sql.NullString

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.VehicleID,
		&b.SlotID,
		&b.AreaID,
		&b.Status,
		&b.ReservationTime,
		&expectedEnd,
		&arrival,
		&departure,
		&b.HourlyReservationRateSnapshot,
		&b.HourlyParkingRateSnapshot,
		&finalReservationFee,
		&finalParkingFee,
		&b.AmountPaid,
		&b.AmountPending,
		&exitToken,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expectedEnd.Valid {
		b.ExpectedEndTime = &expectedEnd.Time
	}
	if arrival.Valid {
		b.ArrivalTime = &arrival.Time
	}
	if departure.Valid {
		b.DepartureTime = &departure.Time
	}
	if finalReservationFee.Valid {
		b.FinalReservationFee = &finalReservationFee.Decimal
	}
	if finalParkingFee.Valid {
		b.FinalParkingFee = &finalParkingFee.Decimal
	}
	if exitToken.Valid {
		b.ExitToken = &exitToken.String
	}
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
