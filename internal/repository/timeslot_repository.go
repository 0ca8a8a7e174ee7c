package repository

import (
	"context"
	"database/sql"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// TimeSlotRepo reads the slot catalogue synced at startup.
type TimeSlotRepo struct {
	db *sql.DB
}

// NewTimeSlotRepo returns a new TimeSlotRepo bound to the given database.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

// List returns every slot ordered by id.
func (r *TimeSlotRepo) List(ctx context.Context) ([]model.TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, start_time, end_time FROM time_slots ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.TimeSlot, 0)
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.Start, &s.End); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Get returns one slot or ErrNotFound.
func (r *TimeSlotRepo) Get(ctx context.Context, id int) (model.TimeSlot, error) {
	var s model.TimeSlot
	err := r.db.QueryRowContext(ctx,
		"SELECT id, start_time, end_time FROM time_slots WHERE id = ?", id).Scan(&s.ID, &s.Start, &s.End)
	return s, notFound(err)
}
