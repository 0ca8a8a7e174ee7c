package queue

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() ReservationEvent {
	ev := NewReservationEvent(EventReservationNoShow, time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	ev.ReservationID = 42
	ev.Room = "A"
	ev.Building = "B1"
	ev.Date = "2025-03-10"
	ev.SlotID = 3
	ev.Participants = []string{"p1", "p2"}
	ev.Sanctions = []SanctionEntry{{ParticipantID: "p1", StartDate: "2025-03-10", EndDate: "2025-05-09"}}
	return ev
}

func TestNewReservationEvent(t *testing.T) {
	ev := sampleEvent()
	_, err := uuid.Parse(ev.EventID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10T12:00:00Z", ev.OccurredAt)
	assert.NotEqual(t, ev.EventID, NewReservationEvent(EventReservationNoShow, time.Now()).EventID)
}

func TestAuditLine(t *testing.T) {
	line := sampleEvent().AuditLine()
	assert.True(t, strings.HasPrefix(line, "[2025-03-10T12:00:00Z] Reservation no-show"))
	assert.Contains(t, line, "reservation_id=42")
	assert.Contains(t, line, `room="A"`)
	assert.Contains(t, line, "participants=[p1,p2]")
	assert.Contains(t, line, "sanctions=[p1:2025-03-10..2025-05-09]")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestConsumerHandleMessageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "reservations.log")
	c := NewConsumer("", path, nil)

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.HandleMessage(body))
	require.NoError(t, c.HandleMessage(body))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "\n"))
}

func TestConsumerHandleMessageRejectsBadPayload(t *testing.T) {
	c := NewConsumer("", filepath.Join(t.TempDir(), "reservations.log"), nil)
	assert.Error(t, c.HandleMessage([]byte("{not json")))
	assert.Error(t, c.HandleMessage([]byte(`{"type":"reservation.created"}`)))
}

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				_ = c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, c)
		}
	}()
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublisherDialHonoursContextDeadline(t *testing.T) {
	p := NewPublisher(silentBroker(t), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.PublishReservationEvent(ctx, sampleEvent())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDialTimeout(t *testing.T) {
	assert.Equal(t, defaultDialTimeout, dialTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d := dialTimeout(ctx)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, time.Second)

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	assert.Equal(t, time.Millisecond, dialTimeout(expired))
}
