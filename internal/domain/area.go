package domain

import "time"

// ParkingArea represents a parking area owning a set of slots
//
// ReservationRateMultipliers is a 4-element table indexed by demand tier
// (0 = lowest demand, 3 = highest), values in [0,1], non-decreasing by
// convention. The current tier per vehicle class is mutated by external
// demand logic and only read here.
type ParkingArea struct {
	ID   int64
	Name string

	CapacitySmall  int
	CapacityMedium int
	CapacityLarge  int

	ReservationRateMultipliers []float64

	GracePeriodMinutes       int // сколько минут бронь удерживает слот до отмены
	ReservationWaiverMinutes int // до какой длительности брони плата не взимается; <= grace period

	CurrentTierSmall  int
	CurrentTierMedium int
	CurrentTierLarge  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationMultiplier returns the multiplier used for reservation
// pricing. The index is fixed at ReservationTierIndex, not the area's
// live demand tier.
func (a *ParkingArea) ReservationMultiplier() float64 {
	if len(a.ReservationRateMultipliers) <= ReservationTierIndex {
		return 0
	}
	return a.ReservationRateMultipliers[ReservationTierIndex]
}

// CurrentTier returns the live demand tier for a vehicle class
func (a *ParkingArea) CurrentTier(class VehicleClass) int {
	switch class {
	case ClassSmall:
		return a.CurrentTierSmall
	case ClassMedium:
		return a.CurrentTierMedium
	case ClassLarge:
		return a.CurrentTierLarge
	default:
		return 0
	}
}

// Capacity returns the slot capacity for a vehicle class
func (a *ParkingArea) Capacity(class VehicleClass) int {
	switch class {
	case ClassSmall:
		return a.CapacitySmall
	case ClassMedium:
		return a.CapacityMedium
	case ClassLarge:
		return a.CapacityLarge
	default:
		return 0
	}
}
