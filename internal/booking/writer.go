package booking

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

// Writer creates a reservation and its roster as one unit.
type Writer struct {
	db           *sql.DB
	reservations *repository.ReservationRepo
	now          func() time.Time
}

// NewWriter returns a Writer.  A nil now uses time.Now.
func NewWriter(db *sql.DB, reservations *repository.ReservationRepo, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{db: db, reservations: reservations, now: now}
}

// Create inserts an active reservation and one roster row per
// participant in a single transaction and returns the committed
// reservation with its roster, ordered by participant id as reads
// return it.  Nothing is read back after the commit.  Losing
// the race for the slot to a concurrent writer is reported as
// ErrSlotUnavailable; every other failure wraps ErrPersistence.  On any
// error nothing is left behind.
func (w *Writer) Create(ctx context.Context, req Request) (model.Reservation, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, persistence("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res := model.Reservation{
		Room:     req.Room.Name,
		Building: req.Room.Building,
		Date:     req.Date,
		SlotID:   req.SlotID,
	}
	if err := w.reservations.CreateTx(ctx, tx, &res); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Reservation{}, reject(ReasonSlotUnavailable, "slot %d on %s was booked concurrently", req.SlotID, req.Date)
		}
		return model.Reservation{}, persistence("insert reservation", err)
	}
	requestedAt := w.now().UTC()
	if err := w.reservations.CreateRosterTx(ctx, tx, res.ID, req.Roster, requestedAt); err != nil {
		return model.Reservation{}, persistence("insert roster", err)
	}
	if err := tx.Commit(); err != nil {
		if repository.IsUniqueViolation(err) {
			return model.Reservation{}, reject(ReasonSlotUnavailable, "slot %d on %s was booked concurrently", req.SlotID, req.Date)
		}
		return model.Reservation{}, persistence("commit", err)
	}
	committed = true

	res.Roster = make([]model.ReservationParticipant, 0, len(req.Roster))
	for _, pid := range req.Roster {
		res.Roster = append(res.Roster, model.ReservationParticipant{
			ReservationID: res.ID,
			ParticipantID: pid,
			RequestedAt:   requestedAt,
		})
	}
	sort.Slice(res.Roster, func(i, j int) bool { return res.Roster[i].ParticipantID < res.Roster[j].ParticipantID })
	return res, nil
}
