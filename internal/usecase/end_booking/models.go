package end_booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request модель запроса на завершение парковки
type Request struct {
	BookingID int64 // ID бронирования
	UserID    int64 // ID пользователя (владелец брони)
}

// Response модель ответа с результатами расчета
type Response struct {
	ID            int64           // ID бронирования
	Status        string          // Новый статус (completed)
	DepartureTime time.Time       // Зафиксированное время выезда

	ReservationFee decimal.Decimal // Плата за фазу брони
	ParkingFee     decimal.Decimal // Плата за парковку
	DuesCleared    decimal.Decimal // Погашенные задолженности прошлых броней
	GrandTotal     decimal.Decimal // Итого списано с кошелька

	// ExitToken предъявляется шлагбауму на выезде
	ExitToken string
}
