package expire_reservations

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("expire_reservations: internal error")

	// errAlreadyProcessed внутренний маркер: бронь успела покинуть
	// статус reserved конкурентным прибытием, обработка пропускается
	errAlreadyProcessed = errors.New("expire_reservations: booking already left reserved")
)
