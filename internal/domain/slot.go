package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotStatus represents the status of a parking slot
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotReserved    SlotStatus = "reserved"
	SlotOccupied    SlotStatus = "occupied"
	SlotMaintenance SlotStatus = "maintenance"
)

// VehicleClass supported vehicle size classes
type VehicleClass string

const (
	ClassSmall  VehicleClass = "small"
	ClassMedium VehicleClass = "medium"
	ClassLarge  VehicleClass = "large"
)

// ParkingSlot represents a single parking slot inside an area
//
// Invariant: status is reserved or occupied iff exactly one non-terminal
// booking references the slot. Status transitions are driven exclusively
// by the booking lifecycle and the expiry sweeper.
type ParkingSlot struct {
	ID             int64
	AreaID         int64
	SlotNumber     string
	VehicleClass   VehicleClass
	BaseHourlyRate decimal.Decimal
	Status         SlotStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAvailable returns true if the slot can accept a new booking
func (s *ParkingSlot) IsAvailable() bool {
	return s.Status == SlotAvailable
}

// IsHeld returns true if the slot is held by a booking
func (s *ParkingSlot) IsHeld() bool {
	return s.Status == SlotReserved || s.Status == SlotOccupied
}
