package due

import "errors"

var (
	// ErrDueNotFound возвращается, когда задолженность не найдена
	// или уже погашена
	ErrDueNotFound = errors.New("due.repository: outstanding due not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("due.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("due.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("due.repository: failed to scan row")
)
