package booking

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Matipousi/UcuDB1/internal/lock"
	"github.com/Matipousi/UcuDB1/internal/logging"
	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/queue"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

const serviceName = "booking"

// Locker serialises work on one key across instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Publisher delivers audit events.
type Publisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// SlotCatalog looks up catalogue slots.
type SlotCatalog interface {
	Get(ctx context.Context, id int) (model.TimeSlot, error)
}

// Config carries the tunable booking rules.
type Config struct {
	Limits       Limits
	SanctionDays int
}

// Deps are the collaborators of a Service.  Locker and Publisher are
// optional.
type Deps struct {
	DB        *sql.DB
	Locker    Locker
	Publisher Publisher
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Now       func() time.Time
}

// CreateParams is an inbound booking request.  Participants may omit the
// requester; it is added to the roster.
type CreateParams struct {
	RequesterID  string
	Room         model.RoomKey
	Date         model.Date
	SlotID       int
	Participants []string
}

// Service is the entry point for creating reservations and recording
// attendance.  It holds no mutable state; every decision is made from
// fresh reads.
type Service struct {
	validator  *Validator
	writer     *Writer
	attendance *AttendanceEngine
	slots      SlotCatalog
	locker     Locker
	publisher  Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewService wires the booking components over deps.DB.
func NewService(deps Deps, cfg Config) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/Matipousi/UcuDB1/internal/booking")
	}

	participants := repository.NewParticipantRepo(deps.DB)
	rooms := repository.NewRoomRepo(deps.DB)
	reservations := repository.NewReservationRepo(deps.DB)
	sanctions := repository.NewSanctionRepo(deps.DB)

	validator := NewValidator(
		rooms,
		NewRoleResolver(participants),
		NewAvailabilityChecker(reservations),
		reservations,
		sanctions,
		cfg.Limits,
	)
	return &Service{
		validator:  validator,
		writer:     NewWriter(deps.DB, reservations, now),
		attendance: NewAttendanceEngine(deps.DB, reservations, sanctions, cfg.SanctionDays),
		slots:      repository.NewTimeSlotRepo(deps.DB),
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		logger:     logger,
		tracer:     tracer,
		now:        now,
	}
}

// CreateReservation validates and books a room.  It returns the stored
// reservation with its roster.
func (s *Service) CreateReservation(ctx context.Context, p CreateParams) (res model.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.CreateReservation", trace.WithAttributes(
		attribute.String("booking.requester", p.RequesterID),
		attribute.String("booking.room", p.Room.Name),
		attribute.String("booking.building", p.Room.Building),
		attribute.String("booking.date", p.Date.String()),
		attribute.Int("booking.slot", p.SlotID),
	))
	logger := s.serviceLogger(ctx, "CreateReservation",
		"requester", p.RequesterID, "room", p.Room.Name, "building", p.Room.Building,
		"date", p.Date.String(), "slot", p.SlotID)
	defer func() { s.finish(span, logger, err) }()

	req, err := s.normalize(ctx, p)
	if err != nil {
		return res, err
	}

	if s.locker != nil {
		release, lerr := s.locker.Acquire(ctx, lock.SlotKey(req.Room.Building, req.Room.Name, req.Date.String(), req.SlotID))
		switch {
		case lerr == nil:
			defer release()
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			// The unique index still guards the slot.
			logger.Warn("slot lock unavailable", "error", lerr)
		}
	}

	decision, err := s.validator.Validate(ctx, req)
	if err != nil {
		return res, err
	}
	res, err = s.writer.Create(ctx, req)
	if err != nil {
		return res, err
	}
	id := res.ID
	span.SetAttributes(attribute.Int64("booking.reservation_id", int64(id)), attribute.Bool("booking.exempt", decision.Exempt))

	logger.Info("reservation created", "reservation_id", id, "exempt", decision.Exempt,
		"role", string(decision.Enrollment.Role), "roster_size", len(req.Roster))

	ev := queue.NewReservationEvent(queue.EventReservationCreated, s.now())
	ev.ReservationID = id
	ev.RequesterID = req.RequesterID
	ev.Room, ev.Building = res.Room, res.Building
	ev.Date, ev.SlotID = res.Date.String(), res.SlotID
	ev.Participants = req.Roster
	s.publish(ctx, logger, ev)
	return res, nil
}

// UpdateAttendance records attendance for a reservation's roster.
func (s *Service) UpdateAttendance(ctx context.Context, reservationID uint64, participantIDs []string, attended []bool) (out Outcome, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.UpdateAttendance", trace.WithAttributes(
		attribute.Int64("booking.reservation_id", int64(reservationID)),
		attribute.Int("booking.roster_size", len(participantIDs)),
	))
	logger := s.serviceLogger(ctx, "UpdateAttendance", "reservation_id", reservationID)
	defer func() { s.finish(span, logger, err) }()

	out, err = s.attendance.Record(ctx, reservationID, participantIDs, attended)
	if err != nil {
		return out, err
	}
	span.SetAttributes(attribute.Bool("booking.no_show", out.NoShow))
	logger.Info("attendance recorded", "no_show", out.NoShow, "sanctions", len(out.Sanctions))

	if out.NoShow {
		ev := queue.NewReservationEvent(queue.EventReservationNoShow, s.now())
		ev.ReservationID = reservationID
		ev.Room, ev.Building = out.Reservation.Room, out.Reservation.Building
		ev.Date, ev.SlotID = out.Reservation.Date.String(), out.Reservation.SlotID
		ev.Participants = participantIDs
		for _, sn := range out.Sanctions {
			ev.Sanctions = append(ev.Sanctions, queue.SanctionEntry{
				ParticipantID: sn.ParticipantID,
				StartDate:     sn.StartDate.String(),
				EndDate:       sn.EndDate.String(),
			})
		}
		s.publish(ctx, logger, ev)
	}
	return out, nil
}

// normalize validates the request shape and builds the roster.  Ids are
// trimmed, blanks dropped and duplicates removed keeping the first
// occurrence; a requester missing from the list is put first.
func (s *Service) normalize(ctx context.Context, p CreateParams) (Request, error) {
	req := Request{
		RequesterID: strings.TrimSpace(p.RequesterID),
		Room: model.RoomKey{
			Name:     strings.TrimSpace(p.Room.Name),
			Building: strings.TrimSpace(p.Room.Building),
		},
		Date:   p.Date,
		SlotID: p.SlotID,
	}
	switch {
	case req.RequesterID == "":
		return req, invalid("requester is required")
	case req.Room.Name == "" || req.Room.Building == "":
		return req, invalid("room and building are required")
	case req.Date.IsZero():
		return req, invalid("date is required")
	case req.SlotID <= 0:
		return req, invalid("slot id must be positive")
	}
	if _, err := s.slots.Get(ctx, req.SlotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return req, invalid("unknown slot %d", req.SlotID)
		}
		return req, persistence("load slot", err)
	}

	seen := make(map[string]bool, len(p.Participants)+1)
	roster := make([]string, 0, len(p.Participants)+1)
	for _, id := range p.Participants {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		roster = append(roster, id)
	}
	if !seen[req.RequesterID] {
		roster = append([]string{req.RequesterID}, roster...)
	}
	req.Roster = roster
	return req, nil
}

func (s *Service) publish(ctx context.Context, logger *slog.Logger, ev queue.ReservationEvent) {
	if s.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.publisher.PublishReservationEvent(pctx, ev); err != nil {
		logger.Warn("audit event not published", "event_type", ev.Type, "event_id", ev.EventID, "error", err)
	}
}

func (s *Service) serviceLogger(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = s.logger
	}
	pairs := []any{"service", serviceName, "operation", operation}
	return logger.With(append(pairs, attrs...)...)
}

func (s *Service) finish(span trace.Span, logger *slog.Logger, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	kind := ErrorKind(err)
	span.SetAttributes(attribute.String("booking.error_kind", kind))
	if r, ok := AsRejection(err); ok {
		span.SetAttributes(attribute.String("booking.reason", string(r.Reason)))
		span.SetStatus(codes.Error, string(r.Reason))
		logger.Info("request rejected", "error_kind", kind, "reason", string(r.Reason), "detail", r.Detail)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	if kind == "persistence" || kind == "unexpected" {
		logger.Error("request failed", "error_kind", kind, "error", err)
		return
	}
	logger.Warn("request failed", "error_kind", kind, "error", err)
}
