package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// Program names created by NewFixtures.
const (
	UndergradProgram = "Computer Engineering"
	GraduateProgram  = "MSc Data Science"
)

// ReferenceTime is the fixed instant used as "now" by fixture-driven tests.
func ReferenceTime() time.Time {
	return time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
}

// Fixtures inserts reference data straight into the database.  Every
// helper fails the test on error.
type Fixtures struct {
	tb        testing.TB
	db        *sql.DB
	facultyID int64
}

// NewFixtures creates one faculty with an undergraduate and a graduate
// program.
func NewFixtures(tb testing.TB, db *sql.DB) *Fixtures {
	tb.Helper()
	f := &Fixtures{tb: tb, db: db}
	res := f.exec("INSERT INTO faculties (name) VALUES (?)", "Engineering")
	id, err := res.LastInsertId()
	if err != nil {
		tb.Fatalf("faculty id: %v", err)
	}
	f.facultyID = id
	f.exec("INSERT INTO programs (name, faculty_id, level) VALUES (?,?,?)", UndergradProgram, id, "undergraduate")
	f.exec("INSERT INTO programs (name, faculty_id, level) VALUES (?,?,?)", GraduateProgram, id, "graduate")
	return f
}

// FacultyID returns the id of the fixture faculty.
func (f *Fixtures) FacultyID() int64 { return f.facultyID }

// Room inserts a room, creating its building when missing.
func (f *Fixtures) Room(name, building string, capacity int, access model.AccessType) model.Room {
	f.tb.Helper()
	f.exec("INSERT OR IGNORE INTO buildings (name) VALUES (?)", building)
	f.exec("INSERT INTO rooms (name, building, capacity, access_type) VALUES (?,?,?,?)",
		name, building, capacity, string(access))
	return model.Room{Name: name, Building: building, Capacity: capacity, AccessType: access}
}

// Participant inserts a participant without enrollments.
func (f *Fixtures) Participant(id string) {
	f.tb.Helper()
	f.exec("INSERT INTO participants (id, first_name, last_name, email) VALUES (?,?,?,?)",
		id, "First "+id, "Last "+id, id+"@example.edu")
}

// Admin inserts a participant flagged as administrator.
func (f *Fixtures) Admin(id string) {
	f.tb.Helper()
	f.exec("INSERT INTO participants (id, first_name, last_name, email, is_admin) VALUES (?,?,?,?,1)",
		id, "Admin", id, id+"@example.edu")
}

// Enroll enrolls the participant in the program matching level.
func (f *Fixtures) Enroll(id string, role model.Role, level model.ProgramLevel) {
	f.tb.Helper()
	program := UndergradProgram
	if level == model.LevelGraduate {
		program = GraduateProgram
	}
	f.exec("INSERT INTO enrollments (participant_id, program_name, faculty_id, role) VALUES (?,?,?,?)",
		id, program, f.facultyID, string(role))
}

// Student inserts an undergraduate student.
func (f *Fixtures) Student(id string) {
	f.tb.Helper()
	f.Participant(id)
	f.Enroll(id, model.RoleStudent, model.LevelUndergraduate)
}

// GraduateStudent inserts a graduate-level student.
func (f *Fixtures) GraduateStudent(id string) {
	f.tb.Helper()
	f.Participant(id)
	f.Enroll(id, model.RoleStudent, model.LevelGraduate)
}

// Instructor inserts an instructor of the undergraduate program.
func (f *Fixtures) Instructor(id string) {
	f.tb.Helper()
	f.Participant(id)
	f.Enroll(id, model.RoleInstructor, model.LevelUndergraduate)
}

// Sanction inserts a sanction for the participant.
func (f *Fixtures) Sanction(id string, start, end model.Date) {
	f.tb.Helper()
	f.exec("INSERT INTO sanctions (participant_id, start_date, end_date) VALUES (?,?,?)", id, start, end)
}

// Reservation inserts a reservation with the given status and roster and
// returns its id.  It bypasses every booking rule.
func (f *Fixtures) Reservation(room model.Room, date model.Date, slotID int, status model.ReservationStatus, roster ...string) uint64 {
	f.tb.Helper()
	res := f.exec("INSERT INTO reservations (room_name, building, date, slot_id, status) VALUES (?,?,?,?,?)",
		room.Name, room.Building, date, slotID, string(status))
	id, err := res.LastInsertId()
	if err != nil {
		f.tb.Fatalf("reservation id: %v", err)
	}
	for _, pid := range roster {
		f.exec("INSERT INTO reservation_participants (reservation_id, participant_id, requested_at) VALUES (?,?,?)",
			id, pid, ReferenceTime())
	}
	return uint64(id)
}

// Count returns the result of a COUNT(*) query.
func (f *Fixtures) Count(query string, args ...any) int {
	f.tb.Helper()
	var n int
	if err := f.db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		f.tb.Fatalf("count %q: %v", query, err)
	}
	return n
}

func (f *Fixtures) exec(query string, args ...any) sql.Result {
	f.tb.Helper()
	res, err := f.db.ExecContext(context.Background(), query, args...)
	if err != nil {
		f.tb.Fatalf("%s", fmt.Errorf("fixture %q: %w", query, err))
	}
	return res
}
