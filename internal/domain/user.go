package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents an account consumed from the identity collaborator
// Only the wallet balance and the blocked flag are used by this service
type User struct {
	ID            int64
	Email         string
	WalletBalance decimal.Decimal
	IsBlocked     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanBook returns true if the user may start new bookings
func (u *User) CanBook() bool {
	return !u.IsBlocked
}
