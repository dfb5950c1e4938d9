package create_booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request модель запроса на создание бронирования
type Request struct {
	UserID    int64 // ID пользователя
	VehicleID int64 // ID транспортного средства
	SlotID    int64 // ID парковочного слота

	// DirectOccupancy - въезд без фазы брони: бронирование создается
	// сразу в статусе active_parking
	DirectOccupancy bool
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID        int64  // ID созданного бронирования
	UserID    int64  // ID пользователя
	VehicleID int64  // ID транспортного средства
	SlotID    int64  // ID слота
	AreaID    int64  // ID зоны
	Status    string // Статус бронирования

	ReservationTime time.Time  // Время создания брони
	ExpectedEndTime *time.Time // Дедлайн прибытия (nil при прямом въезде)
	ArrivalTime     *time.Time // Время прибытия (nil для брони)

	// Снапшоты ставок на момент создания
	HourlyReservationRate decimal.Decimal
	HourlyParkingRate     decimal.Decimal

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
