package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus represents the status of a parking booking
type BookingStatus string

const (
	StatusReserved        BookingStatus = "reserved"
	StatusActiveParking   BookingStatus = "active_parking"
	StatusCompleted       BookingStatus = "completed"
	StatusCancelledNoShow BookingStatus = "cancelled_no_show"
	StatusDefaulted       BookingStatus = "defaulted"
)

// Booking represents a parking booking in the system
//
// Lifecycle: (none) -> reserved -> active_parking -> completed,
// with cancelled_no_show as the sweeper-driven terminal state and
// defaulted reserved for manual write-offs. A booking created via
// direct occupancy skips the reserved phase entirely.
type Booking struct {
	ID        int64
	UserID    int64
	VehicleID int64
	SlotID    int64
	AreaID    int64
	Status    BookingStatus

	ReservationTime time.Time
	ExpectedEndTime *time.Time // расчетный дедлайн прибытия; NULL после прибытия
	ArrivalTime     *time.Time
	DepartureTime   *time.Time

	// Rate snapshots captured at creation. Later changes to the slot's
	// base rate never affect an open booking.
	HourlyReservationRateSnapshot decimal.Decimal
	HourlyParkingRateSnapshot     decimal.Decimal

	FinalReservationFee *decimal.Decimal
	FinalParkingFee     *decimal.Decimal
	AmountPaid          decimal.Decimal
	AmountPending       decimal.Decimal

	ExitToken *string // выдается шлагбауму при успешном завершении

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if the booking reached a terminal state
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted ||
		b.Status == StatusCancelledNoShow ||
		b.Status == StatusDefaulted
}

// IsActive returns true if the booking still holds its slot
func (b *Booking) IsActive() bool {
	return !b.IsTerminal()
}

// CanArrive returns true if the booking can record an arrival
func (b *Booking) CanArrive() bool {
	return b.Status == StatusReserved
}

// CanEnd returns true if the booking can be ended and settled
func (b *Booking) CanEnd() bool {
	return b.Status == StatusActiveParking
}

// IsExpired returns true if the reservation deadline has passed
func (b *Booking) IsExpired(now time.Time) bool {
	return b.Status == StatusReserved &&
		b.ExpectedEndTime != nil &&
		b.ExpectedEndTime.Before(now)
}

// ReservationFeeOrZero returns the final reservation fee, defaulting to
// zero for direct-occupancy bookings that never had a reservation phase
func (b *Booking) ReservationFeeOrZero() decimal.Decimal {
	if b.FinalReservationFee == nil {
		return decimal.Zero
	}
	return *b.FinalReservationFee
}
