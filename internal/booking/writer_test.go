package booking

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

var (
	insertReservation = regexp.QuoteMeta("INSERT INTO reservations (room_name, building, date, slot_id, status)")
	insertRoster      = regexp.QuoteMeta("INSERT INTO reservation_participants")
)

func newMockWriter(t *testing.T) (*Writer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	now := func() time.Time { return time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC) }
	return NewWriter(db, repository.NewReservationRepo(db), now), mock
}

func writerRequest() Request {
	return Request{
		RequesterID: "P1",
		Room:        model.RoomKey{Name: "A", Building: "B1"},
		Date:        model.NewDate(2025, time.March, 10),
		SlotID:      3,
		Roster:      []string{"P1", "P2"},
	}
}

func TestWriterDuplicateKeyIsSlotUnavailable(t *testing.T) {
	w, mock := newMockWriter(t)
	mock.ExpectBegin()
	mock.ExpectExec(insertReservation).
		WithArgs("A", "B1", "2025-03-10", 3).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_reservations_active_slot'"})
	mock.ExpectRollback()

	_, err := w.Create(context.Background(), writerRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriterRosterFailureRollsBack(t *testing.T) {
	w, mock := newMockWriter(t)
	mock.ExpectBegin()
	mock.ExpectExec(insertReservation).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(insertRoster).
		WithArgs(uint64(7), "P1", sqlmock.AnyArg(), uint64(7), "P2", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := w.Create(context.Background(), writerRequest())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "persistence", ErrorKind(err))
	_, rejected := AsRejection(err)
	assert.False(t, rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriterCommits(t *testing.T) {
	w, mock := newMockWriter(t)
	mock.ExpectBegin()
	mock.ExpectExec(insertReservation).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(insertRoster).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	req := writerRequest()
	req.Roster = []string{"P2", "P1"}
	res, err := w.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.ID)
	assert.Equal(t, model.StatusActive, res.Status)
	assert.Equal(t, "A", res.Room)
	assert.Equal(t, model.NewDate(2025, time.March, 10), res.Date)

	// The result is built from the committed writes; sqlmock fails any
	// read issued after the commit.
	require.Len(t, res.Roster, 2)
	assert.Equal(t, "P1", res.Roster[0].ParticipantID)
	assert.Equal(t, "P2", res.Roster[1].ParticipantID)
	for _, p := range res.Roster {
		assert.Equal(t, uint64(7), p.ReservationID)
		assert.False(t, p.Attended)
		assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), p.RequestedAt)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriterBeginFailure(t *testing.T) {
	w, mock := newMockWriter(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := w.Create(context.Background(), writerRequest())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
