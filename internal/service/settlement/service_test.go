package settlement

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
)

// Моки

type mockUserRepo struct {
	debitErr error
	debited  decimal.Decimal
}

func (m *mockUserRepo) DebitWallet(_ context.Context, _ int64, amount decimal.Decimal) error {
	if m.debitErr != nil {
		return m.debitErr
	}
	m.debited = amount
	return nil
}

type mockPaymentRepo struct {
	created *domain.Payment
}

func (m *mockPaymentRepo) Create(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	p.ID = 1
	m.created = p
	return p, nil
}

type mockDueRepo struct {
	unpaid     []*domain.OutstandingDue
	markedPaid []int64
}

func (m *mockDueRepo) GetUnpaidByUserID(_ context.Context, _ int64) ([]*domain.OutstandingDue, error) {
	return m.unpaid, nil
}

func (m *mockDueRepo) MarkPaid(_ context.Context, id int64) error {
	m.markedPaid = append(m.markedPaid, id)
	return nil
}

type financialsCall struct {
	amountPaid    decimal.Decimal
	amountPending decimal.Decimal
}

type mockBookingRepo struct {
	bookings map[int64]*domain.Booking
	updates  map[int64]financialsCall
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return m.bookings[id], nil
}

func (m *mockBookingRepo) UpdateFinancials(_ context.Context, id int64, amountPaid, amountPending decimal.Decimal) error {
	if m.updates == nil {
		m.updates = make(map[int64]financialsCall)
	}
	m.updates[id] = financialsCall{amountPaid: amountPaid, amountPending: amountPending}
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestService(ur *mockUserRepo, pr *mockPaymentRepo, dr *mockDueRepo, br *mockBookingRepo) *Service {
	return NewService(ur, pr, dr, br, nopLogger{})
}

func TestSettle_DebitsWalletAndCreatesPayment(t *testing.T) {
	ur := &mockUserRepo{}
	pr := &mockPaymentRepo{}
	svc := newTestService(ur, pr, &mockDueRepo{}, &mockBookingRepo{})

	payment, err := svc.Settle(context.Background(), 10, 1, decimal.RequireFromString("150.00"))
	require.NoError(t, err)

	assert.Equal(t, "150.00", ur.debited.StringFixed(2))
	assert.Equal(t, domain.MethodWallet, payment.Method)
	assert.Equal(t, domain.PaymentSuccess, payment.Status)
	assert.True(t, payment.IsBookingPayment)
	assert.Equal(t, int64(10), payment.UserID)
	assert.Equal(t, int64(1), payment.BookingID)
}

func TestSettle_InsufficientFunds(t *testing.T) {
	ur := &mockUserRepo{debitErr: userRepo.ErrInsufficientFunds}
	pr := &mockPaymentRepo{}
	svc := newTestService(ur, pr, &mockDueRepo{}, &mockBookingRepo{})

	_, err := svc.Settle(context.Background(), 10, 1, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Nil(t, pr.created)
}

func TestSettle_UserNotFound(t *testing.T) {
	ur := &mockUserRepo{debitErr: userRepo.ErrUserNotFound}
	svc := newTestService(ur, &mockPaymentRepo{}, &mockDueRepo{}, &mockBookingRepo{})

	_, err := svc.Settle(context.Background(), 10, 1, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClearDues_RollsIntoOriginatingBookings(t *testing.T) {
	dr := &mockDueRepo{}
	br := &mockBookingRepo{
		bookings: map[int64]*domain.Booking{
			3: {ID: 3, AmountPaid: decimal.Zero, AmountPending: decimal.RequireFromString("14.58")},
			4: {ID: 4, AmountPaid: decimal.NewFromInt(50), AmountPending: decimal.NewFromInt(20)},
		},
	}
	svc := newTestService(&mockUserRepo{}, &mockPaymentRepo{}, dr, br)

	dues := []*domain.OutstandingDue{
		{ID: 7, BookingID: 3, Amount: decimal.RequireFromString("14.58")},
		{ID: 8, BookingID: 4, Amount: decimal.NewFromInt(20)},
	}
	require.NoError(t, svc.ClearDues(context.Background(), dues))

	assert.Equal(t, []int64{7, 8}, dr.markedPaid)

	assert.Equal(t, "14.58", br.updates[3].amountPaid.StringFixed(2))
	assert.Equal(t, "0.00", br.updates[3].amountPending.StringFixed(2))
	assert.Equal(t, "70.00", br.updates[4].amountPaid.StringFixed(2))
	assert.Equal(t, "0.00", br.updates[4].amountPending.StringFixed(2))
}

func TestSumDues(t *testing.T) {
	dues := []*domain.OutstandingDue{
		{Amount: decimal.RequireFromString("14.58")},
		{Amount: decimal.RequireFromString("20.00")},
	}
	assert.Equal(t, "34.58", SumDues(dues).StringFixed(2))
	assert.Equal(t, "0.00", SumDues(nil).StringFixed(2))
}
