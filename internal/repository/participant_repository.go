package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// ParticipantRepo provides access to participants and their program
// enrollments.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a new ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

// Create inserts a participant.  The email is normalised to lower case.
// A second participant with the same id or email yields ErrDuplicate.
func (r *ParticipantRepo) Create(ctx context.Context, p model.Participant) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO participants (id, first_name, last_name, email, is_admin) VALUES (?,?,?,?,?)",
		p.ID, p.FirstName, p.LastName, p.Email, p.IsAdmin)
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: participant %s", ErrDuplicate, p.ID)
	}
	return err
}

// GetByID fetches a participant by its natural key.
func (r *ParticipantRepo) GetByID(ctx context.Context, id string) (model.Participant, error) {
	var p model.Participant
	err := r.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email, is_admin FROM participants WHERE id = ? LIMIT 1",
		id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.IsAdmin)
	return p, notFound(err)
}

// ResolveEnrollment returns one enrollment of the participant together
// with the level of its program.  When the participant holds several
// enrollments the row picked is whichever the database returns first;
// no ordering is imposed.  ErrNotFound means the participant has no
// enrollment at all.
func (r *ParticipantRepo) ResolveEnrollment(ctx context.Context, participantID string) (model.Enrollment, error) {
	const q = `SELECT e.participant_id, e.program_name, e.faculty_id, e.role, p.level
               FROM enrollments e
               JOIN programs p ON p.name = e.program_name AND p.faculty_id = e.faculty_id
               WHERE e.participant_id = ?
               LIMIT 1`
	var e model.Enrollment
	err := r.db.QueryRowContext(ctx, q, participantID).Scan(
		&e.ParticipantID, &e.ProgramName, &e.FacultyID, &e.Role, &e.Level,
	)
	return e, notFound(err)
}

// ListEnrollments returns every enrollment of the participant ordered by
// program name.
func (r *ParticipantRepo) ListEnrollments(ctx context.Context, participantID string) ([]model.Enrollment, error) {
	const q = `SELECT e.participant_id, e.program_name, e.faculty_id, e.role, p.level
               FROM enrollments e
               JOIN programs p ON p.name = e.program_name AND p.faculty_id = e.faculty_id
               WHERE e.participant_id = ?
               ORDER BY e.program_name, e.faculty_id`
	rows, err := r.db.QueryContext(ctx, q, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Enrollment, 0)
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ParticipantID, &e.ProgramName, &e.FacultyID, &e.Role, &e.Level); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddEnrollment enrolls a participant in a program with the given role.
func (r *ParticipantRepo) AddEnrollment(ctx context.Context, participantID, program string, facultyID int64, role model.Role) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO enrollments (participant_id, program_name, faculty_id, role) VALUES (?,?,?,?)",
		participantID, program, facultyID, string(role))
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: enrollment %s/%s", ErrDuplicate, participantID, program)
	}
	return err
}

// lockParticipantQ takes a row write lock on the participant in both
// MySQL and SQLite; the assignment leaves the row unchanged.
const lockParticipantQ = "UPDATE participants SET is_admin = is_admin WHERE id = ?"

// RemoveEnrollment deletes one enrollment.  It returns ErrNotFound when
// the enrollment does not exist and ErrLastEnrollment when it is the
// participant's only one.
//
// The participant row is write-locked before counting.  A plain COUNT is
// a non-locking read under InnoDB, so without the lock two removals of
// different enrollments could both see two rows and leave none.
func (r *ParticipantRepo) RemoveEnrollment(ctx context.Context, participantID, program string, facultyID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, lockParticipantQ, participantID); err != nil {
		return err
	}

	var total, target int
	const countQ = `SELECT COUNT(*),
                           COALESCE(SUM(CASE WHEN program_name = ? AND faculty_id = ? THEN 1 ELSE 0 END), 0)
                    FROM enrollments WHERE participant_id = ?`
	if err := tx.QueryRowContext(ctx, countQ, program, facultyID, participantID).Scan(&total, &target); err != nil {
		return err
	}
	if target == 0 {
		return ErrNotFound
	}
	if total <= 1 {
		return ErrLastEnrollment
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM enrollments WHERE participant_id = ? AND program_name = ? AND faculty_id = ?",
		participantID, program, facultyID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
