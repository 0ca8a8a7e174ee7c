// Package handler holds the HTTP handlers.  Handlers translate requests
// into booking service calls and map the error taxonomy to status codes;
// they carry no booking rules of their own.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Matipousi/UcuDB1/internal/booking"
	"github.com/Matipousi/UcuDB1/internal/logging"
	"github.com/Matipousi/UcuDB1/internal/middleware"
	"github.com/Matipousi/UcuDB1/internal/model"
)

var errUnauthorized = errors.New("unauthorized")

// callerID returns the participant id placed in the context by JWTAuth.
func callerID(c echo.Context) (string, error) {
	id := middleware.ParticipantID(c)
	if id == "" {
		return "", errUnauthorized
	}
	return id, nil
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// bookingError writes the response for an error returned by the booking
// service.
func bookingError(c echo.Context, err error) error {
	if r, ok := booking.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		if r.Reason == booking.ReasonSlotUnavailable {
			status = http.StatusConflict
		}
		body := echo.Map{"error": "rejected", "reason": string(r.Reason)}
		if r.Detail != "" {
			body["detail"] = r.Detail
		}
		return c.JSON(status, body)
	}
	switch booking.ErrorKind(err) {
	case "invalid_request":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case "not_found":
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case "canceled":
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request canceled"})
	}
	return internalError(c, err)
}

func internalError(c echo.Context, err error) error {
	if logger := logging.FromContext(c.Request().Context()); logger != nil {
		logger.Error("handler failed", "path", c.Path(), "error", err)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

type rosterView struct {
	ParticipantID string    `json:"participant_id"`
	RequestedAt   time.Time `json:"requested_at"`
	Attended      bool      `json:"attended"`
}

type reservationView struct {
	ID       uint64       `json:"id"`
	Room     string       `json:"room"`
	Building string       `json:"building"`
	Date     model.Date   `json:"date"`
	SlotID   int          `json:"slot_id"`
	Status   string       `json:"status"`
	Roster   []rosterView `json:"participants,omitempty"`
}

func toReservationView(r model.Reservation) reservationView {
	v := reservationView{
		ID:       r.ID,
		Room:     r.Room,
		Building: r.Building,
		Date:     r.Date,
		SlotID:   r.SlotID,
		Status:   string(r.Status),
	}
	for _, p := range r.Roster {
		v.Roster = append(v.Roster, rosterView{
			ParticipantID: p.ParticipantID,
			RequestedAt:   p.RequestedAt,
			Attended:      p.Attended,
		})
	}
	return v
}

type sanctionView struct {
	ID            uint64     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	StartDate     model.Date `json:"start_date"`
	EndDate       model.Date `json:"end_date"`
}

func toSanctionView(s model.Sanction) sanctionView {
	return sanctionView{ID: s.ID, ParticipantID: s.ParticipantID, StartDate: s.StartDate, EndDate: s.EndDate}
}
