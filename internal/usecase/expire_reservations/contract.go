package expire_reservations

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListExpiredReservedIDs(ctx context.Context, now time.Time) ([]int64, error)
	CancelNoShow(ctx context.Context, id int64, penalty, amountPaid, amountPending decimal.Decimal) error
}

// SlotRepository интерфейс леджера парковочных слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ParkingSlot, error)
	Release(ctx context.Context, id int64) error
}

// DueRepository интерфейс репозитория задолженностей
type DueRepository interface {
	Create(ctx context.Context, due *domain.OutstandingDue) (*domain.OutstandingDue, error)
}

// SettlementService интерфейс сервиса расчетов
type SettlementService interface {
	Settle(ctx context.Context, userID, bookingID int64, amount decimal.Decimal) (*domain.Payment, error)
}

// NotifyServiceClient интерфейс клиента сервиса уведомлений
type NotifyServiceClient interface {
	SendBookingEvent(ctx context.Context, event *notifyservice.BookingEvent) error
	SendSlotEvent(ctx context.Context, event *notifyservice.SlotEvent) error
	SendUserNotice(ctx context.Context, userID int64, message string) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
