package expire_reservations

import (
	"context"
	"errors"
	"strings"
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

type cancelCall struct {
	penalty       decimal.Decimal
	amountPaid    decimal.Decimal
	amountPending decimal.Decimal
}

type mockBookingRepo struct {
	bookings    map[int64]*domain.Booking
	getErrs     map[int64]error
	cancelCalls map[int64]cancelCall
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if err := m.getErrs[id]; err != nil {
		return nil, err
	}
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ListExpiredReservedIDs(_ context.Context, _ time.Time) ([]int64, error) {
	ids := make([]int64, 0, len(m.bookings))
	for id := range m.bookings {
		ids = append(ids, id)
	}
	for id := range m.getErrs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockBookingRepo) CancelNoShow(_ context.Context, id int64, penalty, amountPaid, amountPending decimal.Decimal) error {
	if m.cancelCalls == nil {
		m.cancelCalls = make(map[int64]cancelCall)
	}
	m.cancelCalls[id] = cancelCall{penalty: penalty, amountPaid: amountPaid, amountPending: amountPending}
	return nil
}

type mockSlotRepo struct {
	released []int64
}

func (m *mockSlotRepo) GetByID(_ context.Context, id int64) (*domain.ParkingSlot, error) {
	return &domain.ParkingSlot{ID: id, Status: domain.SlotAvailable}, nil
}

func (m *mockSlotRepo) Release(_ context.Context, id int64) error {
	m.released = append(m.released, id)
	return nil
}

type mockDueRepo struct {
	created []*domain.OutstandingDue
}

func (m *mockDueRepo) Create(_ context.Context, due *domain.OutstandingDue) (*domain.OutstandingDue, error) {
	m.created = append(m.created, due)
	return due, nil
}

type mockSettlement struct {
	settleErr error
	settled   []decimal.Decimal
}

func (m *mockSettlement) Settle(_ context.Context, userID, bookingID int64, amount decimal.Decimal) (*domain.Payment, error) {
	if m.settleErr != nil {
		return nil, m.settleErr
	}
	m.settled = append(m.settled, amount)
	return &domain.Payment{UserID: userID, BookingID: bookingID, Amount: amount}, nil
}

type mockNotifyClient struct {
	notices []string
}

func (m *mockNotifyClient) SendBookingEvent(_ context.Context, _ *notifyservice.BookingEvent) error {
	return nil
}

func (m *mockNotifyClient) SendSlotEvent(_ context.Context, _ *notifyservice.SlotEvent) error {
	return nil
}

func (m *mockNotifyClient) SendUserNotice(_ context.Context, _ int64, message string) error {
	m.notices = append(m.notices, message)
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

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func expiredBooking(id int64) *domain.Booking {
	deadline := baseTime.Add(30 * time.Minute)
	return &domain.Booking{
		ID:                            id,
		UserID:                        10,
		VehicleID:                     20,
		SlotID:                        30,
		AreaID:                        40,
		Status:                        domain.StatusReserved,
		ReservationTime:               baseTime,
		ExpectedEndTime:               &deadline,
		HourlyReservationRateSnapshot: decimal.NewFromInt(25),
	}
}

func newTestUseCase(br *mockBookingRepo, sr *mockSlotRepo, dr *mockDueRepo, st *mockSettlement, nc *mockNotifyClient, now time.Time) *UseCase {
	uc := NewUseCase(br, sr, dr, st, nc, mockTxManager{}, nopLogger{})
	uc.timeProvider = fixedTime{t: now}
	return uc
}

func TestExecute_CollectsPenaltyFromWallet(t *testing.T) {
	// 35 минут по ставке 25: штраф (35/60)*25 = 14.58
	br := &mockBookingRepo{bookings: map[int64]*domain.Booking{1: expiredBooking(1)}}
	sr := &mockSlotRepo{}
	dr := &mockDueRepo{}
	st := &mockSettlement{}
	nc := &mockNotifyClient{}

	uc := newTestUseCase(br, sr, dr, st, nc, baseTime.Add(35*time.Minute))

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Collected)
	assert.Equal(t, 0, result.Deferred)

	require.Len(t, st.settled, 1)
	assert.Equal(t, "14.58", st.settled[0].StringFixed(2))

	call := br.cancelCalls[1]
	assert.Equal(t, "14.58", call.penalty.StringFixed(2))
	assert.Equal(t, "14.58", call.amountPaid.StringFixed(2))
	assert.Equal(t, "0.00", call.amountPending.StringFixed(2))

	assert.Equal(t, []int64{30}, sr.released)
	assert.Empty(t, dr.created)

	require.Len(t, nc.notices, 1)
	assert.True(t, strings.Contains(nc.notices[0], "списан с кошелька"))
}

func TestExecute_DefersPenaltyToDue(t *testing.T) {
	br := &mockBookingRepo{bookings: map[int64]*domain.Booking{1: expiredBooking(1)}}
	sr := &mockSlotRepo{}
	dr := &mockDueRepo{}
	st := &mockSettlement{settleErr: settlement.ErrInsufficientFunds}
	nc := &mockNotifyClient{}

	uc := newTestUseCase(br, sr, dr, st, nc, baseTime.Add(35*time.Minute))

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Deferred)
	assert.Equal(t, 0, result.Collected)

	require.Len(t, dr.created, 1)
	assert.Equal(t, int64(10), dr.created[0].UserID)
	assert.Equal(t, int64(1), dr.created[0].BookingID)
	assert.Equal(t, "14.58", dr.created[0].Amount.StringFixed(2))

	call := br.cancelCalls[1]
	assert.Equal(t, "0.00", call.amountPaid.StringFixed(2))
	assert.Equal(t, "14.58", call.amountPending.StringFixed(2))

	// Слот освобождается независимо от исхода списания
	assert.Equal(t, []int64{30}, sr.released)

	require.Len(t, nc.notices, 1)
	assert.True(t, strings.Contains(nc.notices[0], "добавлен в задолженность"))
}

func TestExecute_SkipsBookingExpiredConcurrently(t *testing.T) {
	// Конкурентное прибытие успело первым: прекондиция под блокировкой
	// уже не выполняется
	booking := expiredBooking(1)
	booking.Status = domain.StatusActiveParking
	br := &mockBookingRepo{bookings: map[int64]*domain.Booking{1: booking}}
	sr := &mockSlotRepo{}
	st := &mockSettlement{}
	nc := &mockNotifyClient{}

	uc := newTestUseCase(br, sr, &mockDueRepo{}, st, nc, baseTime.Add(35*time.Minute))

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Expired)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, br.cancelCalls)
	assert.Empty(t, sr.released)
	assert.Empty(t, st.settled)
	assert.Empty(t, nc.notices)
}

func TestExecute_FailureDoesNotStopCycle(t *testing.T) {
	br := &mockBookingRepo{
		bookings: map[int64]*domain.Booking{1: expiredBooking(1)},
		getErrs:  map[int64]error{2: errors.New("connection reset")},
	}
	sr := &mockSlotRepo{}
	st := &mockSettlement{}

	uc := newTestUseCase(br, sr, &mockDueRepo{}, st, &mockNotifyClient{}, baseTime.Add(35*time.Minute))

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, br.cancelCalls, int64(1))
}

func TestExecute_NoCandidates(t *testing.T) {
	br := &mockBookingRepo{}
	uc := newTestUseCase(br, &mockSlotRepo{}, &mockDueRepo{}, &mockSettlement{}, &mockNotifyClient{}, baseTime)

	result, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Result{}, result)
}
