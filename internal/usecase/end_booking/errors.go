package end_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("end_booking: booking not found")

	// ErrWrongStatus возвращается, когда бронирование не в статусе active_parking
	ErrWrongStatus = errors.New("end_booking: booking is not in active_parking status")

	// ErrAccessDenied возвращается, когда бронирование принадлежит другому пользователю
	ErrAccessDenied = errors.New("end_booking: access denied")

	// ErrInsufficientFunds возвращается, когда баланса кошелька не хватает
	// на полную сумму; операция отменяется целиком без каких-либо изменений
	ErrInsufficientFunds = errors.New("end_booking: insufficient wallet balance")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("end_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("end_booking: internal error")
)
