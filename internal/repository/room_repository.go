package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// RoomRepo provides read access to rooms and the buildings that hold
// them.  Rooms are keyed by (name, building).
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// CreateBuilding inserts a building.  Existing buildings yield ErrDuplicate.
func (r *RoomRepo) CreateBuilding(ctx context.Context, name, address, department string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO buildings (name, address, department) VALUES (?,?,?)",
		name, address, department)
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: building %s", ErrDuplicate, name)
	}
	return err
}

// Create inserts a room into an existing building.
func (r *RoomRepo) Create(ctx context.Context, room model.Room) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO rooms (name, building, capacity, access_type) VALUES (?,?,?,?)",
		room.Name, room.Building, room.Capacity, string(room.AccessType))
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: room %s/%s", ErrDuplicate, room.Building, room.Name)
	}
	return err
}

// Get loads a room by key.  ErrNotFound is returned when it does not exist.
func (r *RoomRepo) Get(ctx context.Context, key model.RoomKey) (model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx,
		"SELECT name, building, capacity, access_type FROM rooms WHERE name = ? AND building = ?",
		key.Name, key.Building).Scan(&room.Name, &room.Building, &room.Capacity, &room.AccessType)
	return room, notFound(err)
}

// ListAvailable returns the rooms that have no active reservation for
// the given date and slot, ordered by building then name.
func (r *RoomRepo) ListAvailable(ctx context.Context, date model.Date, slotID int) ([]model.Room, error) {
	const q = `SELECT ro.name, ro.building, ro.capacity, ro.access_type
               FROM rooms ro
               WHERE NOT EXISTS (
                   SELECT 1 FROM reservations re
                   WHERE re.room_name = ro.name AND re.building = ro.building
                     AND re.date = ? AND re.slot_id = ? AND re.status = 'active'
               )
               ORDER BY ro.building, ro.name`
	rows, err := r.db.QueryContext(ctx, q, date, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.Name, &room.Building, &room.Capacity, &room.AccessType); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
