package booking

import (
	"context"
	"errors"
	"fmt"
)

// Reason names why a request was rejected.
type Reason string

const (
	ReasonNoSuchRoom         Reason = "NoSuchRoom"
	ReasonNoEnrollment       Reason = "NoEnrollment"
	ReasonRoomTypeRestricted Reason = "RoomTypeRestricted"
	ReasonDailyCapExceeded   Reason = "DailyCapExceeded"
	ReasonWeeklyCapExceeded  Reason = "WeeklyCapExceeded"
	ReasonCapacityExceeded   Reason = "CapacityExceeded"
	ReasonActiveSanction     Reason = "ActiveSanction"
	ReasonSlotUnavailable    Reason = "SlotUnavailable"
	ReasonRosterMismatch     Reason = "RosterMismatch"
)

// Rejection is an expected refusal of a request.  Only the first failed
// rule is reported.
type Rejection struct {
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r.Detail == "" {
		return "booking: rejected: " + string(r.Reason)
	}
	return fmt.Sprintf("booking: rejected: %s: %s", r.Reason, r.Detail)
}

// Is matches any Rejection with the same reason, so errors.Is(err,
// ErrSlotUnavailable) holds regardless of Detail.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

// Sentinel rejections for errors.Is.
var (
	ErrNoSuchRoom         = &Rejection{Reason: ReasonNoSuchRoom}
	ErrNoEnrollment       = &Rejection{Reason: ReasonNoEnrollment}
	ErrRoomTypeRestricted = &Rejection{Reason: ReasonRoomTypeRestricted}
	ErrDailyCapExceeded   = &Rejection{Reason: ReasonDailyCapExceeded}
	ErrWeeklyCapExceeded  = &Rejection{Reason: ReasonWeeklyCapExceeded}
	ErrCapacityExceeded   = &Rejection{Reason: ReasonCapacityExceeded}
	ErrActiveSanction     = &Rejection{Reason: ReasonActiveSanction}
	ErrSlotUnavailable    = &Rejection{Reason: ReasonSlotUnavailable}
	ErrRosterMismatch     = &Rejection{Reason: ReasonRosterMismatch}
)

var (
	// ErrPersistence wraps any storage failure.  The engine never retries.
	ErrPersistence = errors.New("booking: persistence failure")
	// ErrReservationNotFound is returned when the referenced reservation
	// does not exist.
	ErrReservationNotFound = errors.New("booking: reservation not found")
	// ErrInvalidRequest is returned for malformed input rejected before
	// any rule runs.
	ErrInvalidRequest = errors.New("booking: invalid request")
)

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// AsRejection returns the Rejection carried by err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrorKind maps an error to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := AsRejection(err); ok {
		return "rejected"
	}
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrReservationNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "unexpected"
}
