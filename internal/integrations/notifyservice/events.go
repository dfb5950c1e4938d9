package notifyservice

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// FromDomainBooking конвертирует бронирование в событие для NotifyService
func FromDomainBooking(b *domain.Booking) *BookingEvent {
	return &BookingEvent{
		BookingID:           b.ID,
		UserID:              b.UserID,
		VehicleID:           b.VehicleID,
		SlotID:              b.SlotID,
		AreaID:              b.AreaID,
		Status:              string(b.Status),
		ReservationTime:     b.ReservationTime,
		ExpectedEndTime:     b.ExpectedEndTime,
		ArrivalTime:         b.ArrivalTime,
		DepartureTime:       b.DepartureTime,
		FinalReservationFee: decimalString(b.FinalReservationFee),
		FinalParkingFee:     decimalString(b.FinalParkingFee),
		AmountPaid:          b.AmountPaid.StringFixed(2),
		AmountPending:       b.AmountPending.StringFixed(2),
		ExitToken:           b.ExitToken,
	}
}

// FromDomainSlot конвертирует слот в событие для NotifyService
func FromDomainSlot(s *domain.ParkingSlot) *SlotEvent {
	return &SlotEvent{
		SlotID:     s.ID,
		SlotNumber: s.SlotNumber,
		Status:     string(s.Status),
		AreaID:     s.AreaID,
	}
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}
