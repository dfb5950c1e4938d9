package end_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-ParkingService/internal/service/settlement"
)

// UseCase use case завершения парковки: active_parking -> completed
//
// Итоговый счет складывается из платы за бронь, платы за парковку и всех
// непогашенных задолженностей пользователя. Списание строго все-или-ничего:
// при нехватке средств транзакция откатывается целиком, выезд не
// фиксируется и бронирование остается в active_parking
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	settlement   SettlementService
	notifyClient NotifyServiceClient
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	settlementService SettlementService,
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		settlement:   settlementService,
		notifyClient: notifyClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case завершения парковки
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("EndBooking: booking=%d, user=%d", req.BookingID, req.UserID)

	if req.BookingID <= 0 || req.UserID <= 0 {
		return nil, fmt.Errorf("%w: bookingID and userID must be positive", ErrInvalidInput)
	}

	now := uc.timeProvider.Now()

	var (
		booking *domain.Booking
		slot    *domain.ParkingSlot
		resp    *Response
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Получаем бронирование с блокировкой (FOR UPDATE)
		var err error
		booking, err = uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("EndBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("EndBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if booking.UserID != req.UserID {
			uc.logger.Warn("EndBooking: access denied for user=%d to booking id=%d", req.UserID, req.BookingID)
			return ErrAccessDenied
		}

		if !booking.CanEnd() {
			uc.logger.Warn("EndBooking: booking id=%d has status=%s, expected active_parking",
				booking.ID, booking.Status)
			return ErrWrongStatus
		}

		// Плата за парковку: pro-rata по минутам от прибытия до выезда
		virtualMinutes := domain.VirtualMinutes(*booking.ArrivalTime, now)
		parkingFee := domain.ParkingFee(booking.HourlyParkingRateSnapshot, virtualMinutes)
		reservationFee := booking.ReservationFeeOrZero()

		// Непогашенные задолженности входят в общий счет
		dues, err := uc.settlement.UnpaidDues(txCtx, booking.UserID)
		if err != nil {
			return fmt.Errorf("%w: failed to load dues: %v", ErrInternal, err)
		}
		duesTotal := settlement.SumDues(dues)

		grandTotal := reservationFee.Add(parkingFee).Add(duesTotal)

		uc.logger.Info("EndBooking: booking id=%d parked %d min, reservation=%s, parking=%s, dues=%s, total=%s",
			booking.ID, virtualMinutes, reservationFee.StringFixed(2), parkingFee.StringFixed(2),
			duesTotal.StringFixed(2), grandTotal.StringFixed(2))

		// Списание все-или-ничего
		if _, err := uc.settlement.Settle(txCtx, booking.UserID, booking.ID, grandTotal); err != nil {
			if errors.Is(err, settlement.ErrInsufficientFunds) {
				uc.logger.Warn("EndBooking: insufficient funds for booking id=%d, total=%s",
					booking.ID, grandTotal.StringFixed(2))
				return ErrInsufficientFunds
			}
			uc.logger.Error("EndBooking: settlement failed for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: settlement failed: %v", ErrInternal, err)
		}

		// CAS-переход active_parking -> completed с выдачей exit token.
		// В amount_paid брони попадают только ее собственные сборы;
		// погашенные задолженности зачисляются в породившие их брони
		exitToken := uuid.NewString()
		ownPaid := reservationFee.Add(parkingFee)
		if err := uc.bookingRepo.Complete(txCtx, booking.ID, now, parkingFee, ownPaid, exitToken); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				return ErrWrongStatus
			}
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("EndBooking: failed to complete booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to complete booking: %v", ErrInternal, err)
		}

		if err := uc.settlement.ClearDues(txCtx, dues); err != nil {
			return fmt.Errorf("%w: failed to clear dues: %v", ErrInternal, err)
		}

		// Слот возвращается в оборот в той же транзакции
		if err := uc.slotRepo.Release(txCtx, booking.SlotID); err != nil {
			uc.logger.Error("EndBooking: failed to release slot id=%d: %v", booking.SlotID, err)
			return fmt.Errorf("%w: failed to release slot: %v", ErrInternal, err)
		}

		slot, err = uc.slotRepo.GetByID(txCtx, booking.SlotID)
		if err != nil {
			uc.logger.Error("EndBooking: failed to get slot id=%d: %v", booking.SlotID, err)
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCompleted
		booking.DepartureTime = &now
		booking.FinalParkingFee = &parkingFee
		booking.AmountPaid = ownPaid
		booking.AmountPending = decimal.Zero
		booking.ExitToken = &exitToken

		resp = &Response{
			ID:             booking.ID,
			Status:         string(booking.Status),
			DepartureTime:  now,
			ReservationFee: reservationFee,
			ParkingFee:     parkingFee,
			DuesCleared:    duesTotal,
			GrandTotal:     grandTotal,
			ExitToken:      exitToken,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("EndBooking: booking id=%d completed, charged %s", booking.ID, resp.GrandTotal.StringFixed(2))

	// Уведомления после коммита, best-effort
	uc.sendNotifications(ctx, booking, slot)

	return resp, nil
}

// sendNotifications отправляет события об изменении бронирования и слота
// Ошибки доставки логируются и не влияют на результат операции
func (uc *UseCase) sendNotifications(ctx context.Context, booking *domain.Booking, slot *domain.ParkingSlot) {
	if err := uc.notifyClient.SendBookingEvent(ctx, notifyservice.FromDomainBooking(booking)); err != nil {
		uc.logger.Warn("EndBooking: failed to send booking event for id=%d: %v", booking.ID, err)
	}
	if err := uc.notifyClient.SendSlotEvent(ctx, notifyservice.FromDomainSlot(slot)); err != nil {
		uc.logger.Warn("EndBooking: failed to send slot event for id=%d: %v", slot.ID, err)
	}
}
