package settlement

import "errors"

var (
	// ErrInsufficientFunds возвращается, когда баланса кошелька не хватает
	// на всю сумму. Частичное списание не выполняется никогда
	ErrInsufficientFunds = errors.New("settlement: insufficient wallet balance")

	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("settlement: user not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("settlement: internal error")
)
