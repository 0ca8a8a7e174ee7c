package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// SanctionRepo provides access to participant sanctions.  Sanctions are
// never deleted; a sanction stops applying once its end date has passed.
type SanctionRepo struct {
	db *sql.DB
}

// NewSanctionRepo returns a new SanctionRepo bound to the given database.
func NewSanctionRepo(db *sql.DB) *SanctionRepo { return &SanctionRepo{db: db} }

// HasActive reports whether the participant has any sanction whose end
// date is on or after the given date.
func (r *SanctionRepo) HasActive(ctx context.Context, participantID string, on model.Date) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sanctions WHERE participant_id = ? AND end_date >= ?",
		participantID, on).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a single sanction and populates its ID.
func (r *SanctionRepo) Create(ctx context.Context, s *model.Sanction) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO sanctions (participant_id, start_date, end_date) VALUES (?, ?, ?)",
		s.ParticipantID, s.StartDate, s.EndDate)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreateBulkTx inserts the sanctions in a single statement within the
// provided transaction.  IDs are not populated.  Passing an empty slice
// has no effect and returns nil.
func (r *SanctionRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, sanctions []model.Sanction) error {
	if len(sanctions) == 0 {
		return nil
	}
	query := `INSERT INTO sanctions (participant_id, start_date, end_date) VALUES `
	placeholders := make([]string, 0, len(sanctions))
	args := make([]any, 0, len(sanctions)*3)
	for _, s := range sanctions {
		placeholders = append(placeholders, "(?, ?, ?)")
		args = append(args, s.ParticipantID, s.StartDate, s.EndDate)
	}
	_, err := tx.ExecContext(ctx, query+strings.Join(placeholders, ","), args...)
	return err
}

// ListByParticipant returns the participant's sanctions, latest end date
// first.  When activeOn is non-nil only sanctions still in force on that
// date are returned.
func (r *SanctionRepo) ListByParticipant(ctx context.Context, participantID string, activeOn *model.Date) ([]model.Sanction, error) {
	q := "SELECT id, participant_id, start_date, end_date FROM sanctions WHERE participant_id = ?"
	args := []any{participantID}
	if activeOn != nil {
		q += " AND end_date >= ?"
		args = append(args, *activeOn)
	}
	q += " ORDER BY end_date DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Sanction, 0)
	for rows.Next() {
		var s model.Sanction
		if err := rows.Scan(&s.ID, &s.ParticipantID, &s.StartDate, &s.EndDate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
