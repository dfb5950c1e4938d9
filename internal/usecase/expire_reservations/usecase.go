package expire_reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-ParkingService/internal/service/settlement"
)

// UseCase use case отмены просроченных броней: reserved -> cancelled_no_show
//
// Каждая просроченная бронь обрабатывается как независимая единица работы
// в собственной сериализуемой транзакции. Ошибка по одной брони не
// прерывает обработку остальных. Повторный прогон по уже обработанной
// брони ничего не меняет: прекондиция перепроверяется под блокировкой
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	dueRepo      DueRepository
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
	dueRepo DueRepository,
	settlementService SettlementService,
	notifyClient NotifyServiceClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		dueRepo:      dueRepo,
		settlement:   settlementService,
		notifyClient: notifyClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет один цикл обработки просроченных броней
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()

	// Список кандидатов собирается вне транзакции: каждая бронь все равно
	// перепроверяется под блокировкой перед обработкой
	ids, err := uc.bookingRepo.ListExpiredReservedIDs(ctx, now)
	if err != nil {
		uc.logger.Error("ExpireReservations: failed to list expired bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to list expired bookings: %v", ErrInternal, err)
	}

	result := &Result{}
	if len(ids) == 0 {
		return result, nil
	}

	uc.logger.Info("ExpireReservations: %d expired reservations to process", len(ids))

	for _, id := range ids {
		outcome, err := uc.processOne(ctx, id, now)
		switch {
		case errors.Is(err, errAlreadyProcessed):
			result.Skipped++
		case err != nil:
			// Изоляция ошибок: цикл продолжается
			uc.logger.Error("ExpireReservations: failed to process booking id=%d: %v", id, err)
			result.Failed++
		default:
			result.Expired++
			if outcome.deferred {
				result.Deferred++
			} else {
				result.Collected++
			}
			uc.notifyOutcome(ctx, outcome)
		}
	}

	uc.logger.Info("ExpireReservations: cycle done, expired=%d (collected=%d, deferred=%d), skipped=%d, failed=%d",
		result.Expired, result.Collected, result.Deferred, result.Skipped, result.Failed)
	return result, nil
}

// sweepOutcome результат обработки одной брони, нужен для уведомлений
// после коммита
type sweepOutcome struct {
	booking  *domain.Booking
	slot     *domain.ParkingSlot
	penalty  decimal.Decimal
	deferred bool // штраф ушел в задолженность, а не списан с кошелька
}

// processOne отменяет одну просроченную бронь в собственной транзакции
func (uc *UseCase) processOne(ctx context.Context, id int64, now time.Time) (*sweepOutcome, error) {
	outcome := &sweepOutcome{}

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Перечитываем бронь с блокировкой (FOR UPDATE) и перепроверяем
		// прекондицию: конкурентное прибытие могло успеть первым
		booking, err := uc.bookingRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if !booking.IsExpired(now) {
			return errAlreadyProcessed
		}

		// Штраф за неявку: pro-rata по ставке брони за весь интервал
		// удержания, без waiver-периода
		virtualMinutes := domain.VirtualMinutes(booking.ReservationTime, now)
		penalty := domain.NoShowPenalty(booking.HourlyReservationRateSnapshot, virtualMinutes)

		// Пытаемся списать штраф сразу; при нехватке средств он уходит
		// в задолженность
		amountPaid := penalty
		amountPending := decimal.Zero
		_, err = uc.settlement.Settle(txCtx, booking.UserID, booking.ID, penalty)
		switch {
		case err == nil:
		case errors.Is(err, settlement.ErrInsufficientFunds):
			due := &domain.OutstandingDue{
				UserID:    booking.UserID,
				VehicleID: booking.VehicleID,
				BookingID: booking.ID,
				Amount:    penalty,
			}
			if _, err := uc.dueRepo.Create(txCtx, due); err != nil {
				return fmt.Errorf("%w: failed to create due: %v", ErrInternal, err)
			}
			amountPaid = decimal.Zero
			amountPending = penalty
			outcome.deferred = true
		default:
			return fmt.Errorf("%w: settlement failed: %v", ErrInternal, err)
		}

		// CAS-переход reserved -> cancelled_no_show
		if err := uc.bookingRepo.CancelNoShow(txCtx, booking.ID, penalty, amountPaid, amountPending); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				return errAlreadyProcessed
			}
			return fmt.Errorf("%w: failed to cancel booking: %v", ErrInternal, err)
		}

		// Слот освобождается безусловно: ресурс возвращается в оборот
		// независимо от исхода списания
		if err := uc.slotRepo.Release(txCtx, booking.SlotID); err != nil {
			return fmt.Errorf("%w: failed to release slot: %v", ErrInternal, err)
		}

		slot, err := uc.slotRepo.GetByID(txCtx, booking.SlotID)
		if err != nil {
			return fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelledNoShow
		booking.FinalReservationFee = &penalty
		fpf := decimal.Zero
		booking.FinalParkingFee = &fpf
		booking.AmountPaid = amountPaid
		booking.AmountPending = amountPending

		outcome.booking = booking
		outcome.slot = slot
		outcome.penalty = penalty
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("ExpireReservations: booking id=%d cancelled as no-show, penalty=%s, deferred=%t",
		outcome.booking.ID, outcome.penalty.StringFixed(2), outcome.deferred)
	return outcome, nil
}

// notifyOutcome отправляет события и уведомление о штрафе после коммита
// Ошибки доставки логируются и не влияют на результат обработки
func (uc *UseCase) notifyOutcome(ctx context.Context, outcome *sweepOutcome) {
	booking := outcome.booking

	if err := uc.notifyClient.SendBookingEvent(ctx, notifyservice.FromDomainBooking(booking)); err != nil {
		uc.logger.Warn("ExpireReservations: failed to send booking event for id=%d: %v", booking.ID, err)
	}
	if err := uc.notifyClient.SendSlotEvent(ctx, notifyservice.FromDomainSlot(outcome.slot)); err != nil {
		uc.logger.Warn("ExpireReservations: failed to send slot event for id=%d: %v", outcome.slot.ID, err)
	}

	var msg string
	if outcome.deferred {
		msg = fmt.Sprintf("Бронирование %d отменено по неявке. Штраф %s ₽ не удалось списать с кошелька и он добавлен в задолженность",
			booking.ID, outcome.penalty.StringFixed(2))
	} else {
		msg = fmt.Sprintf("Бронирование %d отменено по неявке. Штраф %s ₽ списан с кошелька",
			booking.ID, outcome.penalty.StringFixed(2))
	}
	if err := uc.notifyClient.SendUserNotice(ctx, booking.UserID, msg); err != nil {
		uc.logger.Warn("ExpireReservations: failed to send notice to user=%d: %v", booking.UserID, err)
	}
}
