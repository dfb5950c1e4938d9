package create_booking

import (
	"time"

	createBooking "github.com/m04kA/SMC-ParkingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	VehicleID       int64 `json:"vehicleId"`
	SlotID          int64 `json:"slotId"`
	DirectOccupancy bool  `json:"directOccupancy,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	VehicleID int64  `json:"vehicleId"`
	SlotID    int64  `json:"slotId"`
	AreaID    int64  `json:"areaId"`
	Status    string `json:"status"`

	ReservationTime string  `json:"reservationTime"`
	ExpectedEndTime *string `json:"expectedEndTime,omitempty"`
	ArrivalTime     *string `json:"arrivalTime,omitempty"`

	HourlyReservationRate string `json:"hourlyReservationRate"`
	HourlyParkingRate     string `json:"hourlyParkingRate"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) *createBooking.Request {
	return &createBooking.Request{
		UserID:          userID,
		VehicleID:       r.VehicleID,
		SlotID:          r.SlotID,
		DirectOccupancy: r.DirectOccupancy,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		ID:                    resp.ID,
		UserID:                resp.UserID,
		VehicleID:             resp.VehicleID,
		SlotID:                resp.SlotID,
		AreaID:                resp.AreaID,
		Status:                resp.Status,
		ReservationTime:       resp.ReservationTime.Format(time.RFC3339),
		HourlyReservationRate: resp.HourlyReservationRate.StringFixed(2),
		HourlyParkingRate:     resp.HourlyParkingRate.StringFixed(2),
		CreatedAt:             resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             resp.UpdatedAt.Format(time.RFC3339),
	}

	if resp.ExpectedEndTime != nil {
		s := resp.ExpectedEndTime.Format(time.RFC3339)
		out.ExpectedEndTime = &s
	}
	if resp.ArrivalTime != nil {
		s := resp.ArrivalTime.Format(time.RFC3339)
		out.ArrivalTime = &s
	}

	return out
}
