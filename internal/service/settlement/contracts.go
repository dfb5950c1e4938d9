package settlement

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	DebitWallet(ctx context.Context, id int64, amount decimal.Decimal) error
}

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
}

// DueRepository интерфейс репозитория задолженностей
type DueRepository interface {
	GetUnpaidByUserID(ctx context.Context, userID int64) ([]*domain.OutstandingDue, error)
	MarkPaid(ctx context.Context, id int64) error
}

// BookingRepository интерфейс репозитория бронирований
// Погашение долга обновляет финансовые поля породившей его брони
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateFinancials(ctx context.Context, id int64, amountPaid, amountPending decimal.Decimal) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
