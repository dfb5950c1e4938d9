package end_booking

import (
	"time"

	endBooking "github.com/m04kA/SMC-ParkingService/internal/usecase/end_booking"
)

// SettlementResponse HTTP response model с разбивкой итогового счета
type SettlementResponse struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	DepartureTime string `json:"departureTime"`

	ReservationFee string `json:"reservationFee"`
	ParkingFee     string `json:"parkingFee"`
	DuesCleared    string `json:"duesCleared"`
	GrandTotal     string `json:"grandTotal"`

	ExitToken string `json:"exitToken"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *endBooking.Response) *SettlementResponse {
	return &SettlementResponse{
		ID:             resp.ID,
		Status:         resp.Status,
		DepartureTime:  resp.DepartureTime.Format(time.RFC3339),
		ReservationFee: resp.ReservationFee.StringFixed(2),
		ParkingFee:     resp.ParkingFee.StringFixed(2),
		DuesCleared:    resp.DuesCleared.StringFixed(2),
		GrandTotal:     resp.GrandTotal.StringFixed(2),
		ExitToken:      resp.ExitToken,
	}
}
