package end_booking

import (
	"context"

	endBooking "github.com/m04kA/SMC-ParkingService/internal/usecase/end_booking"
)

type EndBookingUseCase interface {
	Execute(ctx context.Context, req *endBooking.Request) (*endBooking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
