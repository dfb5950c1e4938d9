package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationFee_WithinWaiver(t *testing.T) {
	rate := decimal.NewFromInt(100)

	fee := ReservationFee(rate, 0.25, 5, 10)
	assert.True(t, fee.IsZero(), "fee within waiver must be zero, got %s", fee)

	// Граница вейвера включительно
	fee = ReservationFee(rate, 0.25, 10, 10)
	assert.True(t, fee.IsZero())
}

func TestReservationFee_BeyondWaiver(t *testing.T) {
	rate := decimal.NewFromInt(100)

	// (40/60) * 100 * 0.25 = 16.67
	fee := ReservationFee(rate, 0.25, 40, 10)
	assert.Equal(t, "16.67", fee.StringFixed(2))

	// Сразу за вейвером тариф pro-rata от нуля, без скачка
	fee = ReservationFee(rate, 0.25, 11, 10)
	assert.Equal(t, "4.58", fee.StringFixed(2)) // (11/60)*100*0.25
}

func TestReservationFee_Monotonic(t *testing.T) {
	rate := decimal.NewFromInt(100)

	prev := decimal.Zero
	for minutes := int64(0); minutes <= 180; minutes++ {
		fee := ReservationFee(rate, 0.5, minutes, 10)
		require.False(t, fee.LessThan(prev),
			"fee must be non-decreasing: %s < %s at %d minutes", fee, prev, minutes)
		prev = fee
	}
}

func TestParkingFee_ProRata(t *testing.T) {
	rate := decimal.NewFromInt(100)

	// 90 минут по 100/час = 150.00, без округления до целых часов
	fee := ParkingFee(rate, 90)
	assert.Equal(t, "150.00", fee.StringFixed(2))

	// 30 минут = полчаса
	fee = ParkingFee(rate, 30)
	assert.Equal(t, "50.00", fee.StringFixed(2))

	fee = ParkingFee(rate, 0)
	assert.True(t, fee.IsZero())
}

func TestNoShowPenalty(t *testing.T) {
	// (35/60) * 25 = 14.58
	penalty := NoShowPenalty(decimal.NewFromInt(25), 35)
	assert.Equal(t, "14.58", penalty.StringFixed(2))
}

func TestVirtualMinutes(t *testing.T) {
	from := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(40), VirtualMinutes(from, from.Add(40*time.Minute)))
	// Неполные минуты отбрасываются
	assert.Equal(t, int64(40), VirtualMinutes(from, from.Add(40*time.Minute+59*time.Second)))
	assert.Equal(t, int64(0), VirtualMinutes(from, from))
}

func TestBooking_StateHelpers(t *testing.T) {
	now := time.Now()
	deadline := now.Add(-time.Minute)

	b := &Booking{Status: StatusReserved, ExpectedEndTime: &deadline}
	assert.True(t, b.CanArrive())
	assert.False(t, b.CanEnd())
	assert.True(t, b.IsActive())
	assert.True(t, b.IsExpired(now))

	b.Status = StatusActiveParking
	assert.False(t, b.CanArrive())
	assert.True(t, b.CanEnd())
	assert.False(t, b.IsExpired(now))

	for _, status := range TerminalStatuses {
		b.Status = status
		assert.True(t, b.IsTerminal(), "status %s must be terminal", status)
		assert.False(t, b.IsActive())
	}
}

func TestBooking_ReservationFeeOrZero(t *testing.T) {
	b := &Booking{}
	assert.True(t, b.ReservationFeeOrZero().IsZero())

	fee := decimal.NewFromFloat(16.67)
	b.FinalReservationFee = &fee
	assert.True(t, b.ReservationFeeOrZero().Equal(fee))
}

func TestArea_ReservationMultiplier(t *testing.T) {
	area := &ParkingArea{ReservationRateMultipliers: []float64{0, 0.25, 0.5, 1.0}}

	// Всегда индекс 1, независимо от текущего demand tier
	area.CurrentTierSmall = 3
	assert.Equal(t, 0.25, area.ReservationMultiplier())

	// Неполная таблица не должна приводить к панике
	area.ReservationRateMultipliers = []float64{0}
	assert.Equal(t, 0.0, area.ReservationMultiplier())
}
