package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
)

// Service единая точка движения денег
// Все переходы жизненного цикла, затрагивающие кошелек, проходят через
// Settle: либо списывается вся сумма и создается платеж, либо ничего
// не меняется. Вызывается внутри транзакции соответствующего usecase
type Service struct {
	userRepo    UserRepository
	paymentRepo PaymentRepository
	dueRepo     DueRepository
	bookingRepo BookingRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса расчетов
func NewService(
	userRepo UserRepository,
	paymentRepo PaymentRepository,
	dueRepo DueRepository,
	bookingRepo BookingRepository,
	logger Logger,
) *Service {
	return &Service{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		dueRepo:     dueRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Settle списывает amount с кошелька пользователя и создает платеж
// При нехватке средств возвращает ErrInsufficientFunds без каких-либо
// изменений состояния
func (s *Service) Settle(ctx context.Context, userID, bookingID int64, amount decimal.Decimal) (*domain.Payment, error) {
	if err := s.userRepo.DebitWallet(ctx, userID, amount); err != nil {
		if errors.Is(err, userRepo.ErrInsufficientFunds) {
			s.logger.Warn("Settle: insufficient funds for user=%d, amount=%s", userID, amount.StringFixed(2))
			return nil, ErrInsufficientFunds
		}
		if errors.Is(err, userRepo.ErrUserNotFound) {
			s.logger.Warn("Settle: user id=%d not found", userID)
			return nil, ErrUserNotFound
		}
		s.logger.Error("Settle: failed to debit wallet for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: Settle - debit wallet: %v", ErrInternal, err)
	}

	payment := &domain.Payment{
		UserID:           userID,
		BookingID:        bookingID,
		Amount:           amount,
		Method:           domain.MethodWallet,
		Status:           domain.PaymentSuccess,
		IsBookingPayment: true,
	}

	created, err := s.paymentRepo.Create(ctx, payment)
	if err != nil {
		s.logger.Error("Settle: failed to create payment for user=%d, booking=%d: %v", userID, bookingID, err)
		return nil, fmt.Errorf("%w: Settle - create payment: %v", ErrInternal, err)
	}

	s.logger.Info("Settle: debited %s from user=%d for booking=%d, payment id=%d",
		amount.StringFixed(2), userID, bookingID, created.ID)
	return created, nil
}

// UnpaidDues возвращает непогашенные задолженности пользователя
// в стабильном порядке
func (s *Service) UnpaidDues(ctx context.Context, userID int64) ([]*domain.OutstandingDue, error) {
	dues, err := s.dueRepo.GetUnpaidByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("UnpaidDues: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: UnpaidDues - repository error: %v", ErrInternal, err)
	}
	return dues, nil
}

// SumDues суммирует задолженности
func SumDues(dues []*domain.OutstandingDue) decimal.Decimal {
	total := decimal.Zero
	for _, d := range dues {
		total = total.Add(d.Amount)
	}
	return total
}

// ClearDues помечает задолженности погашенными и зачисляет каждую сумму
// в amount_paid породившей ее брони, обнуляя amount_pending.
// Финансовая история каждой брони остается точной независимо от того,
// какая более поздняя бронь инициировала погашение
func (s *Service) ClearDues(ctx context.Context, dues []*domain.OutstandingDue) error {
	for _, d := range dues {
		if err := s.dueRepo.MarkPaid(ctx, d.ID); err != nil {
			s.logger.Error("ClearDues: failed to mark due id=%d paid: %v", d.ID, err)
			return fmt.Errorf("%w: ClearDues - mark due paid: %v", ErrInternal, err)
		}

		origin, err := s.bookingRepo.GetByID(ctx, d.BookingID)
		if err != nil {
			s.logger.Error("ClearDues: failed to load originating booking id=%d: %v", d.BookingID, err)
			return fmt.Errorf("%w: ClearDues - load originating booking: %v", ErrInternal, err)
		}

		newPaid := origin.AmountPaid.Add(d.Amount)
		if err := s.bookingRepo.UpdateFinancials(ctx, origin.ID, newPaid, decimal.Zero); err != nil {
			s.logger.Error("ClearDues: failed to update booking id=%d financials: %v", origin.ID, err)
			return fmt.Errorf("%w: ClearDues - update booking financials: %v", ErrInternal, err)
		}

		s.logger.Info("ClearDues: due id=%d (%s) cleared into booking id=%d",
			d.ID, d.Amount.StringFixed(2), origin.ID)
	}

	return nil
}
