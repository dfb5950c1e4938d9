package handle_arrival

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request модель запроса на фиксацию прибытия
type Request struct {
	BookingID int64 // ID бронирования
	UserID    int64 // ID пользователя (владелец брони)
}

// Response модель ответа с обновленным бронированием
type Response struct {
	ID          int64           // ID бронирования
	Status      string          // Новый статус (active_parking)
	ArrivalTime time.Time       // Зафиксированное время прибытия
	Fee         decimal.Decimal // Итоговая плата за фазу брони
}
