package model

// Sanction bans a participant from booking between StartDate and EndDate.
// A sanction is active on day D when EndDate >= D; records are never
// deleted when they expire.
type Sanction struct {
	ID            uint64 // sanctions.id
	ParticipantID string // sanctions.participant_id
	StartDate     Date   // sanctions.start_date
	EndDate       Date   // sanctions.end_date
}

// ActiveOn reports whether the sanction blocks bookings on day d.
func (s Sanction) ActiveOn(d Date) bool { return !s.EndDate.Before(d) }
