package arrive_booking

import (
	"time"

	handleArrival "github.com/m04kA/SMC-ParkingService/internal/usecase/handle_arrival"
)

// ArrivalResponse HTTP response model
type ArrivalResponse struct {
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	ArrivalTime    string `json:"arrivalTime"`
	ReservationFee string `json:"reservationFee"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *handleArrival.Response) *ArrivalResponse {
	return &ArrivalResponse{
		ID:             resp.ID,
		Status:         resp.Status,
		ArrivalTime:    resp.ArrivalTime.Format(time.RFC3339),
		ReservationFee: resp.Fee.StringFixed(2),
	}
}
