package create_booking

import "errors"

var (
	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("create_booking: user not found")

	// ErrUserBlocked возвращается, когда пользователь заблокирован
	ErrUserBlocked = errors.New("create_booking: user account is blocked")

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("create_booking: slot not found")

	// ErrSlotNotAvailable возвращается, когда слот занят другим бронированием
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrAreaNotFound возвращается, когда парковочная зона не найдена
	ErrAreaNotFound = errors.New("create_booking: parking area not found")

	// ErrVehicleHasActiveBooking возвращается, когда у транспортного средства
	// уже есть незавершенное бронирование
	ErrVehicleHasActiveBooking = errors.New("create_booking: vehicle already has an active booking")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
