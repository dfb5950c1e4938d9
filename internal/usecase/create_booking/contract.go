package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetActiveByVehicleID(ctx context.Context, vehicleID int64) (*domain.Booking, error)
}

// SlotRepository интерфейс леджера парковочных слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ParkingSlot, error)
	Reserve(ctx context.Context, id int64) error
	OccupyDirect(ctx context.Context, id int64) error
}

// AreaRepository интерфейс репозитория парковочных зон
type AreaRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ParkingArea, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// NotifyServiceClient интерфейс клиента сервиса уведомлений
type NotifyServiceClient interface {
	SendBookingEvent(ctx context.Context, event *notifyservice.BookingEvent) error
	SendSlotEvent(ctx context.Context, event *notifyservice.SlotEvent) error
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
