package model

// Role is the enrollment role a participant holds in a program.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleStudent || r == RoleInstructor }

// ProgramLevel is the academic level of a program.
type ProgramLevel string

const (
	LevelUndergraduate ProgramLevel = "undergraduate"
	LevelGraduate      ProgramLevel = "graduate"
)

// Valid reports whether l is one of the known levels.
func (l ProgramLevel) Valid() bool { return l == LevelUndergraduate || l == LevelGraduate }

// Participant represents a person who can book or attend a study room.
// The identifier is the participant's natural key (national document
// number) and is never generated by the service.
//
// Fields:
//  ID        – natural key.
//  FirstName – given name.
//  LastName  – family name.
//  Email     – unique email address.
//  IsAdmin   – grants access to the administrative endpoints.
type Participant struct {
	ID        string // participants.id
	FirstName string // participants.first_name
	LastName  string // participants.last_name
	Email     string // participants.email
	IsAdmin   bool   // participants.is_admin
}

// Program is an academic program offered by a faculty.  Programs are
// keyed by (name, faculty).
type Program struct {
	Name      string       // programs.name
	FacultyID int64        // programs.faculty_id
	Level     ProgramLevel // programs.level
}

// Enrollment links a participant to a program with a role.  The level is
// copied from the owning program when the enrollment is loaded.
type Enrollment struct {
	ParticipantID string       // enrollments.participant_id
	ProgramName   string       // enrollments.program_name
	FacultyID     int64        // enrollments.faculty_id
	Role          Role         // enrollments.role
	Level         ProgramLevel // programs.level
}
