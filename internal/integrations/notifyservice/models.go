package notifyservice

import "time"

// BookingEvent полный снимок бронирования для NotifyService
// Отправляется после каждого перехода жизненного цикла
type BookingEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"` // booking_changed

	BookingID int64  `json:"booking_id"`
	UserID    int64  `json:"user_id"`
	VehicleID int64  `json:"vehicle_id"`
	SlotID    int64  `json:"slot_id"`
	AreaID    int64  `json:"area_id"`
	Status    string `json:"status"`

	ReservationTime time.Time  `json:"reservation_time"`
	ExpectedEndTime *time.Time `json:"expected_end_time,omitempty"`
	ArrivalTime     *time.Time `json:"arrival_time,omitempty"`
	DepartureTime   *time.Time `json:"departure_time,omitempty"`

	FinalReservationFee *string `json:"final_reservation_fee,omitempty"`
	FinalParkingFee     *string `json:"final_parking_fee,omitempty"`
	AmountPaid          string  `json:"amount_paid"`
	AmountPending       string  `json:"amount_pending"`
	ExitToken           *string `json:"exit_token,omitempty"`
}

// SlotEvent изменение статуса слота для NotifyService
type SlotEvent struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"` // slot_changed
	SlotID     int64  `json:"slot_id"`
	SlotNumber string `json:"slot_number"`
	Status     string `json:"status"`
	AreaID     int64  `json:"area_id"`
}

// UserNotice текстовое уведомление пользователю
// Используется для извещений о штрафах при no-show отмене
type UserNotice struct {
	EventID string `json:"event_id"`
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// ErrorResponse модель ошибки от NotifyService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
