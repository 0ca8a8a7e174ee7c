package booking

import (
	"context"
	"errors"

	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

// Default booking limits.
const (
	DefaultDailyCap     = 2
	DefaultWeeklyCap    = 3
	DefaultSanctionDays = 60
)

// Request is a booking request after roster normalisation.  Roster holds
// every participant, requester included.
type Request struct {
	RequesterID string
	Room        model.RoomKey
	Date        model.Date
	SlotID      int
	Roster      []string
}

// Decision is the result of an admitted request.
type Decision struct {
	Room       model.Room
	Enrollment model.Enrollment
	// Exempt is set when the requester's role or level matches the room's
	// exclusive access type, which waives the daily and weekly caps.
	Exempt bool
}

// RoomStore loads rooms by key.
type RoomStore interface {
	Get(ctx context.Context, key model.RoomKey) (model.Room, error)
}

// CapCounter counts a participant's active reservations.
type CapCounter interface {
	CountActiveOnDate(ctx context.Context, participantID, building string, date model.Date) (int, error)
	CountActiveInRange(ctx context.Context, participantID string, from, to model.Date) (int, error)
}

// SanctionStore answers whether a participant is sanctioned on a date.
type SanctionStore interface {
	HasActive(ctx context.Context, participantID string, on model.Date) (bool, error)
}

// Limits are the per-participant booking caps.
type Limits struct {
	DailyCap  int
	WeeklyCap int
}

// Validator runs the admission rules for a booking request.  It performs
// no writes.
type Validator struct {
	rooms     RoomStore
	roles     *RoleResolver
	avail     *AvailabilityChecker
	counts    CapCounter
	sanctions SanctionStore
	limits    Limits
}

// NewValidator wires a Validator.  Zero limits fall back to the defaults.
func NewValidator(rooms RoomStore, roles *RoleResolver, avail *AvailabilityChecker, counts CapCounter, sanctions SanctionStore, limits Limits) *Validator {
	if limits.DailyCap <= 0 {
		limits.DailyCap = DefaultDailyCap
	}
	if limits.WeeklyCap <= 0 {
		limits.WeeklyCap = DefaultWeeklyCap
	}
	return &Validator{rooms: rooms, roles: roles, avail: avail, counts: counts, sanctions: sanctions, limits: limits}
}

// Validate checks the request rule by rule and returns the first
// rejection.  The order of the rules decides which reason is reported
// when several would fail.
func (v *Validator) Validate(ctx context.Context, req Request) (Decision, error) {
	var d Decision

	room, err := v.rooms.Get(ctx, req.Room)
	if errors.Is(err, repository.ErrNotFound) {
		return d, reject(ReasonNoSuchRoom, "room %s in %s does not exist", req.Room.Name, req.Room.Building)
	}
	if err != nil {
		return d, persistence("load room", err)
	}
	d.Room = room

	enrollment, err := v.roles.Resolve(ctx, req.RequesterID)
	if err != nil {
		return d, err
	}
	d.Enrollment = enrollment

	switch room.AccessType {
	case model.AccessGraduateOnly:
		if enrollment.Level != model.LevelGraduate {
			return d, reject(ReasonRoomTypeRestricted, "room %s is reserved for graduate programs", room.Name)
		}
	case model.AccessInstructorOnly:
		if enrollment.Role != model.RoleInstructor {
			return d, reject(ReasonRoomTypeRestricted, "room %s is reserved for instructors", room.Name)
		}
	}

	d.Exempt = (room.AccessType == model.AccessInstructorOnly && enrollment.Role == model.RoleInstructor) ||
		(room.AccessType == model.AccessGraduateOnly && enrollment.Level == model.LevelGraduate)

	if !d.Exempt {
		// Snapshot reads: concurrent requests by the same participant may
		// both pass and briefly exceed the caps.
		daily, err := v.counts.CountActiveOnDate(ctx, req.RequesterID, room.Building, req.Date)
		if err != nil {
			return d, persistence("count daily reservations", err)
		}
		if daily >= v.limits.DailyCap {
			return d, reject(ReasonDailyCapExceeded, "%d active reservations in %s on %s", daily, room.Building, req.Date)
		}

		from, to := req.Date.WeekBounds()
		weekly, err := v.counts.CountActiveInRange(ctx, req.RequesterID, from, to)
		if err != nil {
			return d, persistence("count weekly reservations", err)
		}
		if weekly >= v.limits.WeeklyCap {
			return d, reject(ReasonWeeklyCapExceeded, "%d active reservations between %s and %s", weekly, from, to)
		}
	}

	if len(req.Roster) > room.Capacity {
		return d, reject(ReasonCapacityExceeded, "%d participants for capacity %d", len(req.Roster), room.Capacity)
	}

	sanctioned, err := v.sanctions.HasActive(ctx, req.RequesterID, req.Date)
	if err != nil {
		return d, persistence("check sanctions", err)
	}
	if sanctioned {
		return d, reject(ReasonActiveSanction, "participant %s is sanctioned on %s", req.RequesterID, req.Date)
	}

	taken, err := v.avail.IsTaken(ctx, req.Room, req.Date, req.SlotID)
	if err != nil {
		return d, err
	}
	if taken {
		return d, reject(ReasonSlotUnavailable, "slot %d on %s is already booked", req.SlotID, req.Date)
	}
	return d, nil
}
