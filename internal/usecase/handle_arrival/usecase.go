package handle_arrival

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
)

// UseCase use case фиксации прибытия: reserved -> active_parking
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	areaRepo     AreaRepository
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
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		areaRepo:     areaRepo,
		notifyClient: notifyClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case фиксации прибытия
// Проверка статуса и запись выполняются под блокировкой строки в
// сериализуемой транзакции: конкурирующий sweep-цикл по той же брони
// не может успеть одновременно с прибытием
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("HandleArrival: booking=%d, user=%d", req.BookingID, req.UserID)

	if req.BookingID <= 0 || req.UserID <= 0 {
		return nil, fmt.Errorf("%w: bookingID and userID must be positive", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	var (
		booking *domain.Booking
		slot    *domain.ParkingSlot
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Получаем бронирование с блокировкой (FOR UPDATE)
		var err error
		booking, err = uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("HandleArrival: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("HandleArrival: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if booking.UserID != req.UserID {
			uc.logger.Warn("HandleArrival: access denied for user=%d to booking id=%d", req.UserID, req.BookingID)
			return ErrAccessDenied
		}

		if !booking.CanArrive() {
			uc.logger.Warn("HandleArrival: booking id=%d has status=%s, expected reserved",
				booking.ID, booking.Status)
			return ErrWrongStatus
		}

		// Зона нужна ради waiver-периода
		area, err := uc.areaRepo.GetByID(txCtx, booking.AreaID)
		if err != nil {
			uc.logger.Error("HandleArrival: failed to get area id=%d: %v", booking.AreaID, err)
			return fmt.Errorf("%w: failed to get area: %v", ErrInternal, err)
		}

		// Итоговая плата за фазу брони. Множитель тарифа уже учтен в
		// снапшоте ставки, поэтому передается 1.0
		virtualMinutes := domain.VirtualMinutes(booking.ReservationTime, now)
		fee := domain.ReservationFee(booking.HourlyReservationRateSnapshot, 1.0,
			virtualMinutes, area.ReservationWaiverMinutes)

		uc.logger.Info("HandleArrival: booking id=%d reserved for %d min, fee=%s",
			booking.ID, virtualMinutes, fee.StringFixed(2))

		// CAS-переход reserved -> active_parking
		if err := uc.bookingRepo.RecordArrival(txCtx, booking.ID, now, fee); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				uc.logger.Warn("HandleArrival: booking id=%d lost the race, status changed", booking.ID)
				return ErrWrongStatus
			}
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("HandleArrival: failed to record arrival for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to record arrival: %v", ErrInternal, err)
		}

		// Слот переходит reserved -> occupied в той же транзакции
		if err := uc.slotRepo.MarkOccupied(txCtx, booking.SlotID); err != nil {
			if errors.Is(err, slotRepo.ErrSlotConflict) {
				uc.logger.Error("HandleArrival: slot id=%d is not reserved while booking id=%d is",
					booking.SlotID, booking.ID)
			}
			return fmt.Errorf("%w: failed to occupy slot: %v", ErrInternal, err)
		}

		slot, err = uc.slotRepo.GetByID(txCtx, booking.SlotID)
		if err != nil {
			uc.logger.Error("HandleArrival: failed to get slot id=%d: %v", booking.SlotID, err)
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusActiveParking
		booking.ArrivalTime = &now
		booking.ExpectedEndTime = nil
		booking.FinalReservationFee = &fee
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("HandleArrival: booking id=%d is now active_parking", booking.ID)

	// Уведомления после коммита, best-effort
	uc.sendNotifications(ctx, booking, slot)

	return &Response{
		ID:          booking.ID,
		Status:      string(booking.Status),
		ArrivalTime: now,
		Fee:         *booking.FinalReservationFee,
	}, nil
}

// sendNotifications отправляет события об изменении бронирования и слота
// Ошибки доставки логируются и не влияют на результат операции
func (uc *UseCase) sendNotifications(ctx context.Context, booking *domain.Booking, slot *domain.ParkingSlot) {
	if err := uc.notifyClient.SendBookingEvent(ctx, notifyservice.FromDomainBooking(booking)); err != nil {
		uc.logger.Warn("HandleArrival: failed to send booking event for id=%d: %v", booking.ID, err)
	}
	if err := uc.notifyClient.SendSlotEvent(ctx, notifyservice.FromDomainSlot(slot)); err != nil {
		uc.logger.Warn("HandleArrival: failed to send slot event for id=%d: %v", slot.ID, err)
	}
}
