// Package queue defines the reservation audit events exchanged over the
// message broker, the publisher used by the HTTP server and the consumer
// that appends them to the audit log.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditQueueName is the durable queue carrying reservation audit events.
const AuditQueueName = "booking.audit"

// Event types.
const (
	EventReservationCreated = "reservation.created"
	EventReservationNoShow  = "reservation.no_show"
)

// ReservationEvent is published after a reservation is created or marked
// as a no-show.  It carries enough information for the audit log without
// querying the primary database.
type ReservationEvent struct {
	EventID       string          `json:"event_id"`
	Type          string          `json:"type"`
	ReservationID uint64          `json:"reservation_id"`
	RequesterID   string          `json:"requester_id,omitempty"`
	Room          string          `json:"room"`
	Building      string          `json:"building"`
	Date          string          `json:"date"`
	SlotID        int             `json:"slot_id"`
	Participants  []string        `json:"participants"`
	Sanctions     []SanctionEntry `json:"sanctions,omitempty"`
	OccurredAt    string          `json:"occurred_at"`
}

// SanctionEntry describes one sanction issued with a no-show.
type SanctionEntry struct {
	ParticipantID string `json:"participant_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// NewReservationEvent returns an event of the given type with a fresh id
// and timestamp.
func NewReservationEvent(eventType string, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}

// AuditLine renders the event as a single human-friendly log line.
func (ev ReservationEvent) AuditLine() string {
	var b strings.Builder
	switch ev.Type {
	case EventReservationCreated:
		b.WriteString("Reservation created")
	case EventReservationNoShow:
		b.WriteString("Reservation no-show")
	default:
		b.WriteString(ev.Type)
	}
	fmt.Fprintf(&b, " | event_id=%s | reservation_id=%d", ev.EventID, ev.ReservationID)
	if ev.RequesterID != "" {
		fmt.Fprintf(&b, " | requester=%s", ev.RequesterID)
	}
	fmt.Fprintf(&b, " | room=%q | building=%q | date=%s | slot=%d | participants=[%s]",
		ev.Room, ev.Building, ev.Date, ev.SlotID, strings.Join(ev.Participants, ","))
	if len(ev.Sanctions) > 0 {
		parts := make([]string, 0, len(ev.Sanctions))
		for _, s := range ev.Sanctions {
			parts = append(parts, fmt.Sprintf("%s:%s..%s", s.ParticipantID, s.StartDate, s.EndDate))
		}
		fmt.Fprintf(&b, " | sanctions=[%s]", strings.Join(parts, ","))
	}
	return fmt.Sprintf("[%s] %s\n", ev.OccurredAt, b.String())
}
