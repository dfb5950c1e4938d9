package end_booking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-ParkingService/internal/service/settlement"
)

// Моки

type mockBookingRepo struct {
	booking        *domain.Booking
	completeCalled bool
	completedPaid  decimal.Decimal
	completedFee   decimal.Decimal
	exitToken      string
}

func (m *mockBookingRepo) GetByID(_ context.Context, _ int64) (*domain.Booking, error) {
	return m.booking, nil
}

func (m *mockBookingRepo) Complete(_ context.Context, _ int64, _ time.Time, parkingFee, amountPaid decimal.Decimal, exitToken string) error {
	m.completeCalled = true
	m.completedFee = parkingFee
	m.completedPaid = amountPaid
	m.exitToken = exitToken
	return nil
}

type mockSlotRepo struct {
	released bool
}

func (m *mockSlotRepo) GetByID(_ context.Context, id int64) (*domain.ParkingSlot, error) {
	return &domain.ParkingSlot{ID: id, Status: domain.SlotAvailable}, nil
}

func (m *mockSlotRepo) Release(_ context.Context, _ int64) error {
	m.released = true
	return nil
}

type mockSettlement struct {
	dues          []*domain.OutstandingDue
	settleErr     error
	settledAmount decimal.Decimal
	settleCalled  bool
	clearedDues   []*domain.OutstandingDue
}

func (m *mockSettlement) Settle(_ context.Context, userID, bookingID int64, amount decimal.Decimal) (*domain.Payment, error) {
	m.settleCalled = true
	m.settledAmount = amount
	if m.settleErr != nil {
		return nil, m.settleErr
	}
	return &domain.Payment{UserID: userID, BookingID: bookingID, Amount: amount}, nil
}

func (m *mockSettlement) UnpaidDues(_ context.Context, _ int64) ([]*domain.OutstandingDue, error) {
	return m.dues, nil
}

func (m *mockSettlement) ClearDues(_ context.Context, dues []*domain.OutstandingDue) error {
	m.clearedDues = dues
	return nil
}

type mockNotifyClient struct{}

func (mockNotifyClient) SendBookingEvent(_ context.Context, _ *notifyservice.BookingEvent) error {
	return nil
}

func (mockNotifyClient) SendSlotEvent(_ context.Context, _ *notifyservice.SlotEvent) error {
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

// Фикстуры

func activeBooking(arrival time.Time) *domain.Booking {
	return &domain.Booking{
		ID:                        1,
		UserID:                    10,
		VehicleID:                 20,
		SlotID:                    30,
		AreaID:                    40,
		Status:                    domain.StatusActiveParking,
		ReservationTime:           arrival,
		ArrivalTime:               &arrival,
		HourlyParkingRateSnapshot: decimal.NewFromInt(100),
	}
}

func newTestUseCase(br *mockBookingRepo, sr *mockSlotRepo, st *mockSettlement, now time.Time) *UseCase {
	uc := NewUseCase(br, sr, st, mockNotifyClient{}, mockTxManager{}, nopLogger{})
	uc.timeProvider = fixedTime{t: now}
	return uc
}

func TestExecute_DirectOccupancy_NinetyMinutes(t *testing.T) {
	// 90 минут по ставке 100: плата за парковку 150.00
	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: activeBooking(arrival)}
	sr := &mockSlotRepo{}
	st := &mockSettlement{}

	uc := newTestUseCase(br, sr, st, arrival.Add(90*time.Minute))

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	require.NoError(t, err)

	assert.Equal(t, "150.00", resp.ParkingFee.StringFixed(2))
	assert.Equal(t, "0.00", resp.ReservationFee.StringFixed(2))
	assert.Equal(t, "150.00", resp.GrandTotal.StringFixed(2))
	assert.Equal(t, "150.00", st.settledAmount.StringFixed(2))
	assert.Equal(t, "150.00", br.completedPaid.StringFixed(2))
	assert.NotEmpty(t, resp.ExitToken)
	assert.Equal(t, br.exitToken, resp.ExitToken)
	assert.True(t, sr.released)
}

func TestExecute_ClearsOutstandingDues(t *testing.T) {
	// Счет 50.00 плюс задолженность 14.58 с прошлой брони: итого 64.58
	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: activeBooking(arrival)}
	st := &mockSettlement{
		dues: []*domain.OutstandingDue{
			{ID: 7, UserID: 10, BookingID: 3, Amount: decimal.RequireFromString("14.58")},
		},
	}

	uc := newTestUseCase(br, &mockSlotRepo{}, st, arrival.Add(30*time.Minute))

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	require.NoError(t, err)

	assert.Equal(t, "50.00", resp.ParkingFee.StringFixed(2))
	assert.Equal(t, "14.58", resp.DuesCleared.StringFixed(2))
	assert.Equal(t, "64.58", resp.GrandTotal.StringFixed(2))
	assert.Equal(t, "64.58", st.settledAmount.StringFixed(2))

	// Задолженность зачисляется в породившую ее бронь, не в текущую
	require.Len(t, st.clearedDues, 1)
	assert.Equal(t, int64(3), st.clearedDues[0].BookingID)
	assert.Equal(t, "50.00", br.completedPaid.StringFixed(2))
}

func TestExecute_InsufficientFunds_NoMutation(t *testing.T) {
	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: activeBooking(arrival)}
	sr := &mockSlotRepo{}
	st := &mockSettlement{settleErr: settlement.ErrInsufficientFunds}

	uc := newTestUseCase(br, sr, st, arrival.Add(90*time.Minute))

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Выезд не зафиксирован, слот не освобожден
	assert.False(t, br.completeCalled)
	assert.False(t, sr.released)
	assert.Empty(t, st.clearedDues)
}

func TestExecute_WrongStatus(t *testing.T) {
	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	booking := activeBooking(arrival)
	booking.Status = domain.StatusCompleted
	br := &mockBookingRepo{booking: booking}
	st := &mockSettlement{}

	uc := newTestUseCase(br, &mockSlotRepo{}, st, arrival.Add(time.Hour))

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	assert.ErrorIs(t, err, ErrWrongStatus)
	assert.False(t, st.settleCalled)
}

func TestExecute_AccessDenied(t *testing.T) {
	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{booking: activeBooking(arrival)}
	st := &mockSettlement{}

	uc := newTestUseCase(br, &mockSlotRepo{}, st, arrival.Add(time.Hour))

	_, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 777})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.False(t, st.settleCalled)
}

func TestExecute_ReservationFeeIncludedInTotal(t *testing.T) {
	// Бронь с зафиксированной платой 16.67 плюс час парковки по 100
	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	booking := activeBooking(arrival)
	resFee := decimal.RequireFromString("16.67")
	booking.FinalReservationFee = &resFee
	br := &mockBookingRepo{booking: booking}
	st := &mockSettlement{}

	uc := newTestUseCase(br, &mockSlotRepo{}, st, arrival.Add(time.Hour))

	resp, err := uc.Execute(context.Background(), &Request{BookingID: 1, UserID: 10})
	require.NoError(t, err)

	assert.Equal(t, "116.67", resp.GrandTotal.StringFixed(2))
	assert.Equal(t, "116.67", br.completedPaid.StringFixed(2))
}
