package handle_arrival

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
)

// Моки

type mockBookingRepo struct {
	booking        *domain.Booking
	getErr         error
	arrivalErr     error
	recordedFee    decimal.Decimal
	recordedTime   time.Time
	arrivalCalled  bool
	arrivalBooking int64
}

func (m *mockBookingRepo) GetByID(_ context.Context, _ int64) (*domain.Booking, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.booking, nil
}

func (m *mockBookingRepo) RecordArrival(_ context.Context, id int64, arrivalTime time.Time, fee decimal.Decimal) error {
	m.arrivalCalled = true
	m.arrivalBooking = id
	m.recordedTime = arrivalTime
	m.recordedFee = fee
	return m.arrivalErr
}

type mockSlotRepo struct {
	slot           *domain.ParkingSlot
	occupiedCalled bool
	occupyErr      error
}

func (m *mockSlotRepo) GetByID(_ context.Context, _ int64) (*domain.ParkingSlot, error) {
	return m.slot, nil
}

func (m *mockSlotRepo) MarkOccupied(_ context.Context, _ int64) error {
	m.occupiedCalled = true
	return m.occupyErr
}

type mockAreaRepo struct {
	area *domain.ParkingArea
}

func (m *mockAreaRepo) GetByID(_ context.Context, _ int64) (*domain.ParkingArea, error) {
	return m.area, nil
}

type mockNotifyClient struct {
	bookingEvents int
	slotEvents    int
}

func (m *mockNotifyClient) SendBookingEvent(_ context.Context, _ *notifyservice.BookingEvent) error {
	m.bookingEvents++
	return nil
}

func (m *mockNotifyClient) SendSlotEvent(_ context.Context, _ *notifyservice.SlotEvent) error {
	m.slotEvents++
	return nil
}

type mockTxManager struct{}

func (mockTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestUseCase(br *mockBookingRepo, sr *mockSlotRepo, ar *mockAreaRepo, nc *mockNotifyClient, now time.Time) *UseCase {
	uc := NewUseCase(br, sr, ar, nc, mockTxManager{}, nopLogger{})
	uc.timeProvider = fixedTime{t: now}
	return uc
}

func reservedBooking(t0 time.Time) *domain.Booking {
	deadline := t0.Add(30 * time.Minute)
	return &domain.Booking{
		ID:                            1,
		UserID:                        10,
		VehicleID:                     20,
		SlotID:                        30,
		AreaID:                        40,
		Status:                        domain.StatusReserved,
		ReservationTime:               t0,
		ExpectedEndTime:               &deadline,
		HourlyReservationRateSnapshot: decimal.NewFromInt(25), // 100 * 0.25
		HourlyParkingRateSnapshot:     decimal.NewFromInt(100),
	}
}

func testArea() *domain.ParkingArea {
	return &domain.ParkingArea{
		ID:                         40,
		ReservationRateMultipliers: []float64{0, 0.25, 0.5, 1.0},
		GracePeriodMinutes:         30,
		ReservationWaiverMinutes:   10,
	}
}

func TestExecute_WithinWaiver_ZeroFee(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: reservedBooking(t0)}
	sr := &mockSlotRepo{slot: &domain.ParkingSlot{ID: 30, Status: domain.SlotOccupied}}
	nc := &mockNotifyClient{}

	uc := newTestUseCase(br, sr, &mockAreaRepo{area: testArea()}, nc, t0.Add(5*time.Minute))

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	require.NoError(t, err)

	assert.True(t, resp.Fee.IsZero())
	assert.Equal(t, string(domain.StatusActiveParking), resp.Status)
	assert.True(t, br.arrivalCalled)
	assert.True(t, sr.occupiedCalled)
	assert.Equal(t, 1, nc.bookingEvents)
	assert.Equal(t, 1, nc.slotEvents)
}

func TestExecute_BeyondWaiver_ProRataFee(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: reservedBooking(t0)}
	sr := &mockSlotRepo{slot: &domain.ParkingSlot{ID: 30, Status: domain.SlotOccupied}}

	// Прибытие через 40 минут: (40/60) * 25 = 16.67
	uc := newTestUseCase(br, sr, &mockAreaRepo{area: testArea()}, &mockNotifyClient{}, t0.Add(40*time.Minute))

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	require.NoError(t, err)

	assert.Equal(t, "16.67", resp.Fee.StringFixed(2))
	assert.Equal(t, "16.67", br.recordedFee.StringFixed(2))
}

func TestExecute_WrongStatus(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	booking := reservedBooking(t0)
	booking.Status = domain.StatusActiveParking
	br := &mockBookingRepo{booking: booking}
	sr := &mockSlotRepo{}

	uc := newTestUseCase(br, sr, &mockAreaRepo{area: testArea()}, &mockNotifyClient{}, t0.Add(5*time.Minute))

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.False(t, br.arrivalCalled)
}

func TestExecute_LostRaceToSweep(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: reservedBooking(t0), arrivalErr: bookingRepo.ErrStatusConflict}
	sr := &mockSlotRepo{}

	uc := newTestUseCase(br, sr, &mockAreaRepo{area: testArea()}, &mockNotifyClient{}, t0.Add(40*time.Minute))

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.False(t, sr.occupiedCalled)
}

func TestExecute_NotFound(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{getErr: bookingRepo.ErrBookingNotFound}

	uc := newTestUseCase(br, &mockSlotRepo{}, &mockAreaRepo{area: testArea()}, &mockNotifyClient{}, t0)

	_, err := uc.Execute(context.Background(), &Request{BookingID: 99, UserID: 10})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_AccessDenied(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: reservedBooking(t0)}

	uc := newTestUseCase(br, &mockSlotRepo{}, &mockAreaRepo{area: testArea()}, &mockNotifyClient{}, t0)

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 777})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.False(t, br.arrivalCalled)
}
