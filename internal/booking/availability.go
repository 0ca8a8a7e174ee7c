package booking

import (
	"context"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// SlotStore reports whether a (room, date, slot) triple is held by an
// active reservation.
type SlotStore interface {
	IsActiveTaken(ctx context.Context, room model.RoomKey, date model.Date, slotID int) (bool, error)
}

// AvailabilityChecker answers whether a slot is already booked.
type AvailabilityChecker struct {
	store SlotStore
}

// NewAvailabilityChecker returns an AvailabilityChecker backed by store.
func NewAvailabilityChecker(store SlotStore) *AvailabilityChecker {
	return &AvailabilityChecker{store: store}
}

// IsTaken reports whether an active reservation exists for the triple.
func (a *AvailabilityChecker) IsTaken(ctx context.Context, room model.RoomKey, date model.Date, slotID int) (bool, error) {
	taken, err := a.store.IsActiveTaken(ctx, room, date, slotID)
	if err != nil {
		return false, persistence("check availability", err)
	}
	return taken, nil
}
