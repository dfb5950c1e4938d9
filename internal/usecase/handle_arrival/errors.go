package handle_arrival

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("handle_arrival: booking not found")

	// ErrWrongStatus возвращается, когда бронирование не в статусе reserved
	// (включая бронь, уже отмененную конкурентным sweep-циклом)
	ErrWrongStatus = errors.New("handle_arrival: booking is not in reserved status")

	// ErrAccessDenied возвращается, когда бронирование принадлежит другому пользователю
	ErrAccessDenied = errors.New("handle_arrival: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("handle_arrival: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("handle_arrival: internal error")
)
