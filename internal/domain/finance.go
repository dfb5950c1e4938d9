package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod represents the payment method
type PaymentMethod string

const (
	MethodWallet PaymentMethod = "wallet"
)

// PaymentStatus represents the payment status
// Failed settlements short-circuit before a payment record is made,
// so only success is ever persisted
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
)

// Payment is an append-only audit record of a successful settlement
type Payment struct {
	ID               int64
	UserID           int64
	BookingID        int64
	Amount           decimal.Decimal
	Method           PaymentMethod
	Status           PaymentStatus
	IsBookingPayment bool
	CreatedAt        time.Time
}

// OutstandingDue is a penalty or fee that could not be settled
// immediately and is deferred against the user's account.
// Created only when an immediate settlement fails; cleared only by a
// later successful settlement for the same user.
type OutstandingDue struct {
	ID        int64
	UserID    int64
	VehicleID int64
	BookingID int64 // originating booking
	Amount    decimal.Decimal
	IsPaid    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
