package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// ReservationRepo provides access to reservations and their rosters.
// Participants attached to a reservation are stored in the
// reservation_participants table.  Write methods that must be grouped
// with other writes take an explicit transaction (the *Tx variants); the
// caller commits or rolls back.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// IsActiveTaken reports whether an active reservation exists for the
// exact (room, date, slot) triple.
func (r *ReservationRepo) IsActiveTaken(ctx context.Context, room model.RoomKey, date model.Date, slotID int) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations
               WHERE room_name = ? AND building = ? AND date = ? AND slot_id = ? AND status = 'active'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, room.Name, room.Building, date, slotID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountActiveOnDate counts the active reservations in the building on
// the date whose roster includes the participant.
func (r *ReservationRepo) CountActiveOnDate(ctx context.Context, participantID, building string, date model.Date) (int, error) {
	const q = `SELECT COUNT(*)
               FROM reservations re
               JOIN reservation_participants rp ON rp.reservation_id = re.id
               WHERE rp.participant_id = ? AND re.building = ? AND re.date = ? AND re.status = 'active'`
	var n int
	err := r.db.QueryRowContext(ctx, q, participantID, building, date).Scan(&n)
	return n, err
}

// CountActiveInRange counts the distinct active reservations dated within
// [from, to] (inclusive) whose roster includes the participant, across
// all buildings.
func (r *ReservationRepo) CountActiveInRange(ctx context.Context, participantID string, from, to model.Date) (int, error) {
	const q = `SELECT COUNT(DISTINCT re.id)
               FROM reservations re
               JOIN reservation_participants rp ON rp.reservation_id = re.id
               WHERE rp.participant_id = ? AND re.date BETWEEN ? AND ? AND re.status = 'active'`
	var n int
	err := r.db.QueryRowContext(ctx, q, participantID, from, to).Scan(&n)
	return n, err
}

// CreateTx inserts an active reservation within the scope of an existing
// transaction and populates the generated ID and status on res.  A
// collision with another active reservation for the same triple yields
// an error wrapping ErrDuplicate.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (room_name, building, date, slot_id, status) VALUES (?, ?, ?, ?, 'active')`
	result, err := tx.ExecContext(ctx, q, res.Room, res.Building, res.Date, res.SlotID)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Status = model.StatusActive
	return nil
}

// CreateRosterTx inserts one reservation_participants row per id in a
// single statement, all with the same request timestamp and attended
// unset.  Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) CreateRosterTx(ctx context.Context, tx *sql.Tx, reservationID uint64, participantIDs []string, requestedAt time.Time) error {
	if len(participantIDs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO reservation_participants (reservation_id, participant_id, requested_at, attended) VALUES `)
	args := make([]any, 0, len(participantIDs)*3)
	for i, pid := range participantIDs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, FALSE)")
		args = append(args, reservationID, pid, requestedAt.UTC())
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// GetByID returns a reservation with its roster.  ErrNotFound is
// returned when no reservation has the id.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := getReservation(ctx, r.db, id)
	if err != nil {
		return res, err
	}
	res.Roster, err = listRoster(ctx, r.db, id)
	return res, err
}

// GetTx returns a reservation without its roster inside a transaction.
func (r *ReservationRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	return getReservation(ctx, tx, id)
}

// RosterTx returns the roster of a reservation inside a transaction,
// ordered by participant id.
func (r *ReservationRepo) RosterTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]model.ReservationParticipant, error) {
	return listRoster(ctx, tx, reservationID)
}

func getReservation(ctx context.Context, q DBTX, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := q.QueryRowContext(ctx,
		"SELECT id, room_name, building, date, slot_id, status FROM reservations WHERE id = ?",
		id).Scan(&res.ID, &res.Room, &res.Building, &res.Date, &res.SlotID, &res.Status)
	return res, notFound(err)
}

func listRoster(ctx context.Context, q DBTX, reservationID uint64) ([]model.ReservationParticipant, error) {
	const sel = `SELECT reservation_id, participant_id, requested_at, attended
                 FROM reservation_participants
                 WHERE reservation_id = ?
                 ORDER BY participant_id`
	rows, err := q.QueryContext(ctx, sel, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roster := make([]model.ReservationParticipant, 0)
	for rows.Next() {
		var p model.ReservationParticipant
		if err := rows.Scan(&p.ReservationID, &p.ParticipantID, &p.RequestedAt, &p.Attended); err != nil {
			return nil, err
		}
		p.RequestedAt = p.RequestedAt.UTC()
		roster = append(roster, p)
	}
	return roster, rows.Err()
}

// ListByParticipant returns every reservation whose roster includes the
// participant, newest date first, with rosters populated.  When there
// are none an empty slice is returned.
func (r *ReservationRepo) ListByParticipant(ctx context.Context, participantID string) ([]model.Reservation, error) {
	const q = `SELECT re.id, re.room_name, re.building, re.date, re.slot_id, re.status
               FROM reservations re
               JOIN reservation_participants rp ON rp.reservation_id = re.id
               WHERE rp.participant_id = ?
               ORDER BY re.date DESC, re.slot_id DESC, re.id DESC`
	rows, err := r.db.QueryContext(ctx, q, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.Reservation, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.Room, &res.Building, &res.Date, &res.SlotID, &res.Status); err != nil {
			return nil, err
		}
		res.Roster = []model.ReservationParticipant{}
		index[res.ID] = len(list)
		list = append(list, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	// Populate rosters for all reservations in a single query
	ids := make([]any, 0, len(list))
	placeholders := make([]string, 0, len(list))
	for _, res := range list {
		ids = append(ids, res.ID)
		placeholders = append(placeholders, "?")
	}
	rosterQ := `SELECT reservation_id, participant_id, requested_at, attended
                FROM reservation_participants
                WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
                ORDER BY reservation_id, participant_id`
	prows, err := r.db.QueryContext(ctx, rosterQ, ids...)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var p model.ReservationParticipant
		if err := prows.Scan(&p.ReservationID, &p.ParticipantID, &p.RequestedAt, &p.Attended); err != nil {
			return nil, err
		}
		idx, ok := index[p.ReservationID]
		if !ok {
			continue
		}
		p.RequestedAt = p.RequestedAt.UTC()
		list[idx].Roster = append(list[idx].Roster, p)
	}
	return list, prows.Err()
}

// SetAttendedTx overwrites the attended flag of one roster row.  It
// returns ErrNotFound when the participant is not on the roster.
func (r *ReservationRepo) SetAttendedTx(ctx context.Context, tx *sql.Tx, reservationID uint64, participantID string, attended bool) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE reservation_participants SET attended = ? WHERE reservation_id = ? AND participant_id = ?",
		attended, reservationID, participantID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when the value is unchanged,
		// so confirm the row exists before calling it missing.
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM reservation_participants WHERE reservation_id = ? AND participant_id = ?",
			reservationID, participantID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// MarkNoShowTx moves an active reservation to no-show.  It reports false
// when the reservation was not active, in which case nothing changed.
func (r *ReservationRepo) MarkNoShowTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (bool, error) {
	result, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status = 'no-show' WHERE id = ? AND status = 'active'",
		reservationID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateStatus sets the status of an active reservation.  It returns
// ErrNotFound when the reservation does not exist and ErrConflict when it
// is no longer active.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, reservationID uint64, status model.ReservationStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET status = ? WHERE id = ? AND status = 'active'",
		string(status), reservationID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := getReservation(ctx, r.db, reservationID); err != nil {
		return err
	}
	return ErrConflict
}
