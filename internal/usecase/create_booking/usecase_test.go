package create_booking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
)

// Моки

type mockBookingRepo struct {
	activeBooking *domain.Booking
	created       *domain.Booking
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	b.ID = 1
	b.CreatedAt = b.ReservationTime
	b.UpdatedAt = b.ReservationTime
	m.created = b
	return b, nil
}

func (m *mockBookingRepo) GetActiveByVehicleID(_ context.Context, _ int64) (*domain.Booking, error) {
	if m.activeBooking == nil {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return m.activeBooking, nil
}

type mockSlotRepo struct {
	slot       *domain.ParkingSlot
	reserveErr error
	occupyErr  error
	reserved   bool
	occupied   bool
}

func (m *mockSlotRepo) GetByID(_ context.Context, _ int64) (*domain.ParkingSlot, error) {
	if m.slot == nil {
		return nil, slotRepo.ErrSlotNotFound
	}
	return m.slot, nil
}

func (m *mockSlotRepo) Reserve(_ context.Context, _ int64) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.reserved = true
	return nil
}

func (m *mockSlotRepo) OccupyDirect(_ context.Context, _ int64) error {
	if m.occupyErr != nil {
		return m.occupyErr
	}
	m.occupied = true
	return nil
}

type mockAreaRepo struct {
	area *domain.ParkingArea
}

func (m *mockAreaRepo) GetByID(_ context.Context, _ int64) (*domain.ParkingArea, error) {
	return m.area, nil
}

type mockUserRepo struct {
	user *domain.User
}

func (m *mockUserRepo) GetByID(_ context.Context, _ int64) (*domain.User, error) {
	return m.user, nil
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

// Фикстуры

func availableSlot() *domain.ParkingSlot {
	return &domain.ParkingSlot{
		ID:             30,
		AreaID:         40,
		SlotNumber:     "A-12",
		VehicleClass:   domain.ClassMedium,
		BaseHourlyRate: decimal.NewFromInt(100),
		Status:         domain.SlotAvailable,
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

func activeUser() *domain.User {
	return &domain.User{ID: 10, WalletBalance: decimal.NewFromInt(200)}
}

func newTestUseCase(br *mockBookingRepo, sr *mockSlotRepo, ur *mockUserRepo, nc *mockNotifyClient, now time.Time) *UseCase {
	uc := NewUseCase(br, sr, &mockAreaRepo{area: testArea()}, ur, nc, mockTxManager{}, nopLogger{})
	uc.timeProvider = fixedTime{t: now}
	return uc
}

func TestExecute_Reservation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{}
	sr := &mockSlotRepo{slot: availableSlot()}
	nc := &mockNotifyClient{}

	uc := newTestUseCase(br, sr, &mockUserRepo{user: activeUser()}, nc, now)

	resp, err := uc.Execute(context.Background(), &Request{UserID: 10, VehicleID: 20, SlotID: 30})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusReserved), resp.Status)
	assert.True(t, sr.reserved)
	require.NotNil(t, resp.ExpectedEndTime)
	assert.Equal(t, now.Add(30*time.Minute), *resp.ExpectedEndTime)
	assert.Nil(t, resp.ArrivalTime)

	// Снапшоты: ставка брони = базовая * множитель стандартного тарифа
	assert.Equal(t, "25.00", resp.HourlyReservationRate.StringFixed(2))
	assert.Equal(t, "100.00", resp.HourlyParkingRate.StringFixed(2))

	assert.Equal(t, 1, nc.bookingEvents)
	assert.Equal(t, 1, nc.slotEvents)
}

func TestExecute_DirectOccupancy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{}
	sr := &mockSlotRepo{slot: availableSlot()}

	uc := newTestUseCase(br, sr, &mockUserRepo{user: activeUser()}, &mockNotifyClient{}, now)

	resp, err := uc.Execute(context.Background(), &Request{
		UserID: 10, VehicleID: 20, SlotID: 30, DirectOccupancy: true,
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusActiveParking), resp.Status)
	assert.True(t, sr.occupied)
	assert.False(t, sr.reserved)
	assert.Nil(t, resp.ExpectedEndTime)
	require.NotNil(t, resp.ArrivalTime)
	assert.Equal(t, now, *resp.ArrivalTime)
}

func TestExecute_UserBlocked(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := &mockSlotRepo{slot: availableSlot()}
	ur := &mockUserRepo{user: &domain.User{ID: 10, IsBlocked: true}}

	uc := newTestUseCase(&mockBookingRepo{}, sr, ur, &mockNotifyClient{}, now)

	_, err := uc.Execute(context.Background(), &Request{UserID: 10, VehicleID: 20, SlotID: 30})
	assert.ErrorIs(t, err, ErrUserBlocked)
	assert.False(t, sr.reserved)
}

func TestExecute_VehicleHasActiveBooking(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	br := &mockBookingRepo{activeBooking: &domain.Booking{ID: 5, VehicleID: 20, Status: domain.StatusReserved}}
	sr := &mockSlotRepo{slot: availableSlot()}

	uc := newTestUseCase(br, sr, &mockUserRepo{user: activeUser()}, &mockNotifyClient{}, now)

	_, err := uc.Execute(context.Background(), &Request{UserID: 10, VehicleID: 20, SlotID: 30})
	assert.ErrorIs(t, err, ErrVehicleHasActiveBooking)
	assert.False(t, sr.reserved)
}

func TestExecute_SlotNotAvailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	slot := availableSlot()
	slot.Status = domain.SlotOccupied
	sr := &mockSlotRepo{slot: slot}

	uc := newTestUseCase(&mockBookingRepo{}, sr, &mockUserRepo{user: activeUser()}, &mockNotifyClient{}, now)

	_, err := uc.Execute(context.Background(), &Request{UserID: 10, VehicleID: 20, SlotID: 30})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_LostRaceForSlot(t *testing.T) {
	// Слот был available при чтении, но конкурентный запрос успел первым
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sr := &mockSlotRepo{slot: availableSlot(), reserveErr: slotRepo.ErrSlotConflict}
	br := &mockBookingRepo{}

	uc := newTestUseCase(br, sr, &mockUserRepo{user: activeUser()}, &mockNotifyClient{}, now)

	_, err := uc.Execute(context.Background(), &Request{UserID: 10, VehicleID: 20, SlotID: 30})
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.Nil(t, br.created)
}

func TestExecute_SlotNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(&mockBookingRepo{}, &mockSlotRepo{}, &mockUserRepo{user: activeUser()}, &mockNotifyClient{}, now)

	_, err := uc.Execute(context.Background(), &Request{UserID: 10, VehicleID: 20, SlotID: 99})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestExecute_InvalidInput(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := newTestUseCase(&mockBookingRepo{}, &mockSlotRepo{slot: availableSlot()}, &mockUserRepo{user: activeUser()}, &mockNotifyClient{}, now)

	_, err := uc.Execute(context.Background(), &Request{UserID: 0, VehicleID: 20, SlotID: 30})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
