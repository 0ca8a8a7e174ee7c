package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

// Outcome reports what an attendance update changed.
type Outcome struct {
	Reservation model.Reservation
	// NoShow is set when this update moved the reservation to no-show.
	NoShow    bool
	Sanctions []model.Sanction
}

// AttendanceEngine records attendance and sanctions rosters that did not
// show up.
type AttendanceEngine struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	sanctions    *repository.SanctionRepo
	sanctionDays int
}

// NewAttendanceEngine returns an AttendanceEngine issuing sanctions of
// sanctionDays days (60 when not positive).
func NewAttendanceEngine(db *sql.DB, reservations *repository.ReservationRepo, sanctions *repository.SanctionRepo, sanctionDays int) *AttendanceEngine {
	if sanctionDays <= 0 {
		sanctionDays = DefaultSanctionDays
	}
	return &AttendanceEngine{db: db, reservations: reservations, sanctions: sanctions, sanctionDays: sanctionDays}
}

// Record overwrites the attended flag of every roster participant.  The
// supplied ids must be exactly the stored roster.  When every flag ends
// up false and the reservation is still active, it becomes a no-show and
// each participant is sanctioned from the reservation date for
// sanctionDays days.  All writes share one transaction.
func (e *AttendanceEngine) Record(ctx context.Context, reservationID uint64, participantIDs []string, attended []bool) (Outcome, error) {
	var out Outcome
	if len(participantIDs) != len(attended) {
		return out, reject(ReasonRosterMismatch, "%d participants but %d attendance flags", len(participantIDs), len(attended))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return out, persistence("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.reservations.GetTx(ctx, tx, reservationID)
	if errors.Is(err, repository.ErrNotFound) {
		return out, ErrReservationNotFound
	}
	if err != nil {
		return out, persistence("load reservation", err)
	}
	roster, err := e.reservations.RosterTx(ctx, tx, reservationID)
	if err != nil {
		return out, persistence("load roster", err)
	}
	if err := matchRoster(roster, participantIDs); err != nil {
		return out, err
	}

	allAbsent := len(participantIDs) > 0
	for i, pid := range participantIDs {
		if err := e.reservations.SetAttendedTx(ctx, tx, reservationID, pid, attended[i]); err != nil {
			return out, persistence("update attendance", err)
		}
		if attended[i] {
			allAbsent = false
		}
	}

	if allAbsent {
		flipped, err := e.reservations.MarkNoShowTx(ctx, tx, reservationID)
		if err != nil {
			return out, persistence("mark no-show", err)
		}
		if flipped {
			out.NoShow = true
			res.Status = model.StatusNoShow
			end := res.Date.AddDays(e.sanctionDays)
			out.Sanctions = make([]model.Sanction, 0, len(participantIDs))
			for _, pid := range participantIDs {
				out.Sanctions = append(out.Sanctions, model.Sanction{ParticipantID: pid, StartDate: res.Date, EndDate: end})
			}
			if err := e.sanctions.CreateBulkTx(ctx, tx, out.Sanctions); err != nil {
				return Outcome{}, persistence("issue sanctions", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Outcome{}, persistence("commit", err)
	}
	committed = true

	res.Roster = make([]model.ReservationParticipant, 0, len(roster))
	flags := make(map[string]bool, len(participantIDs))
	for i, pid := range participantIDs {
		flags[pid] = attended[i]
	}
	for _, p := range roster {
		p.Attended = flags[p.ParticipantID]
		res.Roster = append(res.Roster, p)
	}
	out.Reservation = res
	return out, nil
}

// matchRoster checks that ids name every roster participant exactly once.
func matchRoster(roster []model.ReservationParticipant, ids []string) error {
	if len(ids) != len(roster) {
		return reject(ReasonRosterMismatch, "roster has %d participants, got %d", len(roster), len(ids))
	}
	members := make(map[string]bool, len(roster))
	for _, p := range roster {
		members[p.ParticipantID] = false
	}
	for _, id := range ids {
		seen, ok := members[id]
		if !ok {
			return reject(ReasonRosterMismatch, "participant %s is not on the roster", id)
		}
		if seen {
			return reject(ReasonRosterMismatch, "participant %s listed twice", id)
		}
		members[id] = true
	}
	return nil
}
