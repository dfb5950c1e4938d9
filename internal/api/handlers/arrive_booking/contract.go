package arrive_booking

import (
	"context"

	handleArrival "github.com/m04kA/SMC-ParkingService/internal/usecase/handle_arrival"
)

type HandleArrivalUseCase interface {
	Execute(ctx context.Context, req *handleArrival.Request) (*handleArrival.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
