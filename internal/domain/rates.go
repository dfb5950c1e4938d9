package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate policy: pro-rata billing to the minute, no minimum-hour rounding.
// "Virtual minutes" are elapsed wall-clock minutes between two recorded
// timestamps; the surrounding product compresses real seconds into
// minutes for demo cycles, the formulas are time-unit-agnostic.

var minutesPerHour = decimal.NewFromInt(60)

// ReservationFee computes the fee for holding a reservation.
// Returns zero while the elapsed time is within the waiver period,
// otherwise (virtualMinutes/60) * rate * multiplier, rounded to cents.
func ReservationFee(hourlyRate decimal.Decimal, multiplier float64, virtualMinutes int64, waiverMinutes int) decimal.Decimal {
	if virtualMinutes <= int64(waiverMinutes) {
		return decimal.Zero
	}
	hours := decimal.NewFromInt(virtualMinutes).Div(minutesPerHour)
	return hourlyRate.Mul(decimal.NewFromFloat(multiplier)).Mul(hours).Round(2)
}

// ParkingFee computes the fee for actual parking time:
// (virtualMinutes/60) * rate, rounded to cents.
func ParkingFee(hourlyRate decimal.Decimal, virtualMinutes int64) decimal.Decimal {
	hours := decimal.NewFromInt(virtualMinutes).Div(minutesPerHour)
	return hourlyRate.Mul(hours).Round(2)
}

// NoShowPenalty computes the penalty for an expired reservation:
// pro-rata reservation rate over the whole reserved interval, with no
// waiver applied.
func NoShowPenalty(reservationRate decimal.Decimal, virtualMinutes int64) decimal.Decimal {
	hours := decimal.NewFromInt(virtualMinutes).Div(minutesPerHour)
	return reservationRate.Mul(hours).Round(2)
}

// VirtualMinutes returns whole elapsed minutes between two timestamps
func VirtualMinutes(from, to time.Time) int64 {
	return int64(to.Sub(from) / time.Minute)
}
