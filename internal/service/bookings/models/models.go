package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Status *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
// Денежные поля сериализуются строками с двумя знаками после запятой
type BookingResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	VehicleID int64  `json:"vehicleId"`
	SlotID    int64  `json:"slotId"`
	AreaID    int64  `json:"areaId"`
	Status    string `json:"status"`

	ReservationTime string  `json:"reservationTime"` // ISO 8601
	ExpectedEndTime *string `json:"expectedEndTime,omitempty"`
	ArrivalTime     *string `json:"arrivalTime,omitempty"`
	DepartureTime   *string `json:"departureTime,omitempty"`

	HourlyReservationRate string `json:"hourlyReservationRate"`
	HourlyParkingRate     string `json:"hourlyParkingRate"`

	ReservationFee *string `json:"reservationFee,omitempty"`
	ParkingFee     *string `json:"parkingFee,omitempty"`
	AmountPaid     string  `json:"amountPaid"`
	AmountPending  string  `json:"amountPending"`

	ExitToken *string `json:"exitToken,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// DueResponse ответ с данными задолженности
type DueResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	VehicleID int64     `json:"vehicleId"`
	BookingID int64     `json:"bookingId"`
	Amount    string    `json:"amount"`
	IsPaid    bool      `json:"isPaid"`
	CreatedAt time.Time `json:"createdAt"`
}

// DueListResponse ответ со списком задолженностей
type DueListResponse struct {
	Dues        []DueResponse `json:"dues"`
	TotalAmount string        `json:"totalAmount"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                    b.ID,
		UserID:                b.UserID,
		VehicleID:             b.VehicleID,
		SlotID:                b.SlotID,
		AreaID:                b.AreaID,
		Status:                string(b.Status),
		ReservationTime:       b.ReservationTime.Format(time.RFC3339),
		HourlyReservationRate: b.HourlyReservationRateSnapshot.StringFixed(2),
		HourlyParkingRate:     b.HourlyParkingRateSnapshot.StringFixed(2),
		AmountPaid:            b.AmountPaid.StringFixed(2),
		AmountPending:         b.AmountPending.StringFixed(2),
		ExitToken:             b.ExitToken,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}

	resp.ExpectedEndTime = formatTimePtr(b.ExpectedEndTime)
	resp.ArrivalTime = formatTimePtr(b.ArrivalTime)
	resp.DepartureTime = formatTimePtr(b.DepartureTime)

	if b.FinalReservationFee != nil {
		fee := b.FinalReservationFee.StringFixed(2)
		resp.ReservationFee = &fee
	}
	if b.FinalParkingFee != nil {
		fee := b.FinalParkingFee.StringFixed(2)
		resp.ParkingFee = &fee
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// FromDomainDueList конвертирует список задолженностей в DTO с общей суммой
func FromDomainDueList(dues []*domain.OutstandingDue) *DueListResponse {
	resp := &DueListResponse{
		Dues: make([]DueResponse, 0, len(dues)),
	}

	total := dueTotal(dues)
	resp.TotalAmount = total.StringFixed(2)

	for _, d := range dues {
		resp.Dues = append(resp.Dues, DueResponse{
			ID:        d.ID,
			UserID:    d.UserID,
			VehicleID: d.VehicleID,
			BookingID: d.BookingID,
			Amount:    d.Amount.StringFixed(2),
			IsPaid:    d.IsPaid,
			CreatedAt: d.CreatedAt,
		})
	}

	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func dueTotal(dues []*domain.OutstandingDue) decimal.Decimal {
	total := decimal.Zero
	for _, d := range dues {
		total = total.Add(d.Amount)
	}
	return total
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	// Валидируем статус
	validStatuses := []domain.BookingStatus{
		domain.StatusReserved,
		domain.StatusActiveParking,
		domain.StatusCompleted,
		domain.StatusCancelledNoShow,
		domain.StatusDefaulted,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
