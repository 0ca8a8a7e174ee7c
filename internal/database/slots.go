package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Matipousi/UcuDB1/internal/model"
)

// slotCatalog is the on-disk shape of a slot catalogue file:
//
//	slots:
//	  - {id: 1, start: "08:00:00", end: "09:00:00"}
type slotCatalog struct {
	Slots []model.TimeSlot `yaml:"slots"`
}

// DefaultSlots returns the hourly catalogue from 08:00 to 23:00.
func DefaultSlots() []model.TimeSlot {
	slots := make([]model.TimeSlot, 0, 15)
	for hour := 8; hour < 23; hour++ {
		slots = append(slots, model.TimeSlot{
			ID:    hour - 7,
			Start: fmt.Sprintf("%02d:00:00", hour),
			End:   fmt.Sprintf("%02d:00:00", hour+1),
		})
	}
	return slots
}

// LoadSlotCatalog reads a YAML slot catalogue.  An empty path yields
// DefaultSlots.
func LoadSlotCatalog(path string) ([]model.TimeSlot, error) {
	if path == "" {
		return DefaultSlots(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slot catalog: %w", err)
	}
	var cat slotCatalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse slot catalog: %w", err)
	}
	if err := validateSlots(cat.Slots); err != nil {
		return nil, err
	}
	sort.Slice(cat.Slots, func(i, j int) bool { return cat.Slots[i].ID < cat.Slots[j].ID })
	return cat.Slots, nil
}

func validateSlots(slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return fmt.Errorf("slot catalog is empty")
	}
	seen := make(map[int]bool, len(slots))
	for _, s := range slots {
		if s.ID <= 0 {
			return fmt.Errorf("slot catalog: invalid id %d", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("slot catalog: duplicate id %d", s.ID)
		}
		seen[s.ID] = true
		if s.Start == "" || s.End == "" || s.End <= s.Start {
			return fmt.Errorf("slot catalog: slot %d has invalid bounds %q-%q", s.ID, s.Start, s.End)
		}
	}
	return nil
}

// SyncTimeSlots upserts the catalogue into time_slots inside one
// transaction.  Slots missing from the catalogue are left alone because
// existing reservations may still reference them.
func SyncTimeSlots(ctx context.Context, db *sql.DB, dialect Dialect, slots []model.TimeSlot) error {
	var q string
	switch dialect {
	case DialectMySQL:
		q = `INSERT INTO time_slots (id, start_time, end_time) VALUES (?, ?, ?)
             ON DUPLICATE KEY UPDATE start_time = VALUES(start_time), end_time = VALUES(end_time)`
	case DialectSQLite:
		q = `INSERT INTO time_slots (id, start_time, end_time) VALUES (?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET start_time = excluded.start_time, end_time = excluded.end_time`
	default:
		return fmt.Errorf("database: unsupported driver %q", dialect)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, s := range slots {
		if _, err := tx.ExecContext(ctx, q, s.ID, s.Start, s.End); err != nil {
			return fmt.Errorf("upsert slot %d: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
