package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  Active is
// the only non-terminal state.
type ReservationStatus string

const (
	StatusActive    ReservationStatus = "active"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusNoShow    ReservationStatus = "no-show"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Reservation books a room for one slot on one date.  At most one active
// reservation may exist per (room, building, date, slot).
//
// Fields:
//  ID       – primary key identifier.
//  Room     – room name.
//  Building – building of the room.
//  Date     – reserved day.
//  SlotID   – reserved slot of the catalogue.
//  Status   – lifecycle state.
//  Roster   – participants attached at creation time, when loaded.
type Reservation struct {
	ID       uint64                  // reservations.id
	Room     string                  // reservations.room_name
	Building string                  // reservations.building
	Date     Date                    // reservations.date
	SlotID   int                     // reservations.slot_id
	Status   ReservationStatus       // reservations.status
	Roster   []ReservationParticipant
}

// RoomKey returns the key of the reserved room.
func (r Reservation) RoomKey() RoomKey { return RoomKey{Name: r.Room, Building: r.Building} }

// ReservationParticipant is one roster row of a reservation.  The roster
// is fixed when the reservation is created; only Attended changes later.
type ReservationParticipant struct {
	ReservationID uint64    // reservation_participants.reservation_id
	ParticipantID string    // reservation_participants.participant_id
	RequestedAt   time.Time // reservation_participants.requested_at
	Attended      bool      // reservation_participants.attended
}
