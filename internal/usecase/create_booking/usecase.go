package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
)

// UseCase use case создания бронирования: (none) -> reserved либо
// (none) -> active_parking при прямом въезде
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	areaRepo     AreaRepository
	userRepo     UserRepository
	notifyClient NotifyServiceClient
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	areaRepo AreaRepository,
	userRepo UserRepository,
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		areaRepo:     areaRepo,
		userRepo:     userRepo,
		notifyClient: notifyClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию: проверка доступности слота и его
// захват выполняются под блокировкой, из двух конкурирующих запросов на
// один слот побеждает ровно один
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, vehicle=%d, slot=%d, direct=%t",
		req.UserID, req.VehicleID, req.SlotID, req.DirectOccupancy)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	var (
		result *domain.Booking
		slot   *domain.ParkingSlot
	)

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Проверяем пользователя: заблокированные аккаунты не могут
		// начинать новые бронирования
		user, err := uc.userRepo.GetByID(txCtx, req.UserID)
		if err != nil {
			if errors.Is(err, userRepo.ErrUserNotFound) {
				uc.logger.Warn("CreateBooking: user id=%d not found", req.UserID)
				return ErrUserNotFound
			}
			uc.logger.Error("CreateBooking: failed to get user id=%d: %v", req.UserID, err)
			return fmt.Errorf("%w: failed to get user: %v", ErrInternal, err)
		}

		if !user.CanBook() {
			uc.logger.Warn("CreateBooking: user id=%d is blocked", req.UserID)
			return ErrUserBlocked
		}

		// 3.2. Проверяем, что у транспортного средства нет другого
		// незавершенного бронирования
		if _, err := uc.bookingRepo.GetActiveByVehicleID(txCtx, req.VehicleID); err == nil {
			uc.logger.Warn("CreateBooking: vehicle id=%d already has an active booking", req.VehicleID)
			return ErrVehicleHasActiveBooking
		} else if !errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Error("CreateBooking: failed to check active booking for vehicle id=%d: %v", req.VehicleID, err)
			return fmt.Errorf("%w: failed to check active booking: %v", ErrInternal, err)
		}

		// 3.3. Получаем слот с блокировкой (FOR UPDATE)
		slot, err = uc.slotRepo.GetByID(txCtx, req.SlotID)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				uc.logger.Warn("CreateBooking: slot id=%d not found", req.SlotID)
				return ErrSlotNotFound
			}
			uc.logger.Error("CreateBooking: failed to get slot id=%d: %v", req.SlotID, err)
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		if !slot.IsAvailable() {
			uc.logger.Warn("CreateBooking: slot id=%d is not available, status=%s", slot.ID, slot.Status)
			return ErrSlotNotAvailable
		}

		// 3.4. Получаем зону для grace period и таблицы множителей
		area, err := uc.areaRepo.GetByID(txCtx, slot.AreaID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get area id=%d: %v", slot.AreaID, err)
			return fmt.Errorf("%w: failed to get area: %v", ErrInternal, err)
		}

		// 3.5. Снапшоты ставок. Ставка брони фиксируется с множителем
		// стандартного тарифа; дальнейшие изменения базовой ставки слота
		// не влияют на открытое бронирование
		reservationRate := slot.BaseHourlyRate.
			Mul(decimal.NewFromFloat(area.ReservationMultiplier())).
			Round(2)
		parkingRate := slot.BaseHourlyRate

		booking := &domain.Booking{
			UserID:                        req.UserID,
			VehicleID:                     req.VehicleID,
			SlotID:                        slot.ID,
			AreaID:                        slot.AreaID,
			ReservationTime:               now,
			HourlyReservationRateSnapshot: reservationRate,
			HourlyParkingRateSnapshot:     parkingRate,
			AmountPaid:                    decimal.Zero,
			AmountPending:                 decimal.Zero,
		}

		// 3.6. Захватываем слот и выставляем стартовый статус
		if req.DirectOccupancy {
			if err := uc.slotRepo.OccupyDirect(txCtx, slot.ID); err != nil {
				return uc.mapSlotError("occupy", slot.ID, err)
			}
			booking.Status = domain.StatusActiveParking
			booking.ArrivalTime = &now
			slot.Status = domain.SlotOccupied
		} else {
			if err := uc.slotRepo.Reserve(txCtx, slot.ID); err != nil {
				return uc.mapSlotError("reserve", slot.ID, err)
			}
			deadline := now.Add(time.Duration(area.GracePeriodMinutes) * time.Minute)
			booking.Status = domain.StatusReserved
			booking.ExpectedEndTime = &deadline
			slot.Status = domain.SlotReserved
		}

		// 3.7. Сохраняем бронирование
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, status=%s", result.ID, result.Status)

	// 4. Уведомления после коммита, best-effort
	uc.sendNotifications(ctx, result, slot)

	return &Response{
		ID:                    result.ID,
		UserID:                result.UserID,
		VehicleID:             result.VehicleID,
		SlotID:                result.SlotID,
		AreaID:                result.AreaID,
		Status:                string(result.Status),
		ReservationTime:       result.ReservationTime,
		ExpectedEndTime:       result.ExpectedEndTime,
		ArrivalTime:           result.ArrivalTime,
		HourlyReservationRate: result.HourlyReservationRateSnapshot,
		HourlyParkingRate:     result.HourlyParkingRateSnapshot,
		CreatedAt:             result.CreatedAt,
		UpdatedAt:             result.UpdatedAt,
	}, nil
}

// mapSlotError конвертирует ошибки леджера слотов в ошибки usecase
func (uc *UseCase) mapSlotError(op string, slotID int64, err error) error {
	if errors.Is(err, slotRepo.ErrSlotConflict) {
		uc.logger.Warn("CreateBooking: lost the race to %s slot id=%d", op, slotID)
		return ErrSlotNotAvailable
	}
	if errors.Is(err, slotRepo.ErrSlotNotFound) {
		return ErrSlotNotFound
	}
	uc.logger.Error("CreateBooking: failed to %s slot id=%d: %v", op, slotID, err)
	return fmt.Errorf("%w: failed to %s slot: %v", ErrInternal, op, err)
}

// sendNotifications отправляет события об изменении бронирования и слота
// Ошибки доставки логируются и не влияют на результат операции
func (uc *UseCase) sendNotifications(ctx context.Context, booking *domain.Booking, slot *domain.ParkingSlot) {
	if err := uc.notifyClient.SendBookingEvent(ctx, notifyservice.FromDomainBooking(booking)); err != nil {
		uc.logger.Warn("CreateBooking: failed to send booking event for id=%d: %v", booking.ID, err)
	}
	if err := uc.notifyClient.SendSlotEvent(ctx, notifyservice.FromDomainSlot(slot)); err != nil {
		uc.logger.Warn("CreateBooking: failed to send slot event for id=%d: %v", slot.ID, err)
	}
}
