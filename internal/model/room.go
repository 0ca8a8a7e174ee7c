package model

// AccessType restricts who may book a room.
type AccessType string

const (
	AccessOpen           AccessType = "open"
	AccessGraduateOnly   AccessType = "graduate-only"
	AccessInstructorOnly AccessType = "instructor-only"
)

// Valid reports whether a is one of the known access types.
func (a AccessType) Valid() bool {
	switch a {
	case AccessOpen, AccessGraduateOnly, AccessInstructorOnly:
		return true
	}
	return false
}

// RoomKey identifies a room.  Room names are only unique inside a
// building, so both parts are required.
type RoomKey struct {
	Name     string `json:"room"`
	Building string `json:"building"`
}

// Room is a bookable study room.
//
// Fields:
//  Name       – room name, unique per building.
//  Building   – owning building name.
//  Capacity   – maximum roster size, always positive.
//  AccessType – open, graduate-only or instructor-only.
type Room struct {
	Name       string     // rooms.name
	Building   string     // rooms.building
	Capacity   int        // rooms.capacity
	AccessType AccessType // rooms.access_type
}

// Key returns the composite key of the room.
func (r Room) Key() RoomKey { return RoomKey{Name: r.Name, Building: r.Building} }
