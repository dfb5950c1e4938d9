package domain

// Demand tier table
const (
	// DemandTierCount размер таблицы множителей в каждой зоне
	DemandTierCount = 4

	// ReservationTierIndex индекс множителя для расчета стоимости брони.
	// Зафиксирован на позиции 1 таблицы (стандартный тариф брони) и не
	// зависит от текущего demand tier зоны.
	ReservationTierIndex = 1
)

// Default area configuration values
const (
	DefaultGracePeriodMinutes       = 30
	DefaultReservationWaiverMinutes = 10
)

// Business validation constants
const (
	MinGracePeriodMinutes = 1
	MaxGracePeriodMinutes = 1440 // 1 day
	MinRateMultiplier     = 0.0
	MaxRateMultiplier     = 1.0
)

// TerminalStatuses список терминальных статусов бронирований
// Используется при фильтрации активных бронирований
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelledNoShow,
	StatusDefaulted,
}

// ActiveStatuses список статусов, при которых бронирование удерживает слот
var ActiveStatuses = []BookingStatus{
	StatusReserved,
	StatusActiveParking,
}
