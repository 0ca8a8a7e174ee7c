package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Matipousi/UcuDB1/internal/booking"
	"github.com/Matipousi/UcuDB1/internal/middleware"
	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
	"github.com/Matipousi/UcuDB1/internal/utils"
)

// ReservationHandler serves booking and attendance requests.  The
// requester is always the authenticated caller.
type ReservationHandler struct {
	Service         *booking.Service
	ReservationRepo *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler.  Both
// dependencies must be non-nil.
func NewReservationHandler(svc *booking.Service, reservations *repository.ReservationRepo) *ReservationHandler {
	if svc == nil || reservations == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Service: svc, ReservationRepo: reservations}
}

type createReservationRequest struct {
	Room         string     `json:"room"`
	Building     string     `json:"building"`
	Date         model.Date `json:"date"`
	SlotID       int        `json:"slot_id"`
	Participants []string   `json:"participants"`
}

// Create handles POST /v1/reservations.  The caller is the requester and
// is added to the roster when absent.  Returns 201 with the reservation,
// 422 with a reason when a rule rejects it, 409 when the slot is taken.
func (h *ReservationHandler) Create(c echo.Context) error {
	requester, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Service.CreateReservation(c.Request().Context(), booking.CreateParams{
		RequesterID:  requester,
		Room:         model.RoomKey{Name: body.Room, Building: body.Building},
		Date:         body.Date,
		SlotID:       body.SlotID,
		Participants: body.Participants,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationView(res))
}

// Get handles GET /v1/reservations/:id.  Only roster members and admins
// may read a reservation.
func (h *ReservationHandler) Get(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.ReservationRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return internalError(c, err)
	}
	if middleware.Role(c) != utils.RoleAdmin && !onRoster(res, caller) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.ReservationRepo.ListByParticipant(c.Request().Context(), caller)
	if err != nil {
		return internalError(c, err)
	}
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

type attendanceEntry struct {
	ParticipantID string `json:"participant_id"`
	Attended      bool   `json:"attended"`
}

// UpdateAttendance handles PUT /v1/reservations/:id/attendance.  The body
// must list every roster member exactly once.  When nobody attended the
// reservation becomes a no-show and every member is sanctioned.
func (h *ReservationHandler) UpdateAttendance(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Attendance []attendanceEntry `json:"attendance"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ids := make([]string, len(body.Attendance))
	flags := make([]bool, len(body.Attendance))
	for i, a := range body.Attendance {
		ids[i], flags[i] = a.ParticipantID, a.Attended
	}
	out, err := h.Service.UpdateAttendance(c.Request().Context(), id, ids, flags)
	if err != nil {
		return bookingError(c, err)
	}
	sanctions := make([]sanctionView, 0, len(out.Sanctions))
	for _, s := range out.Sanctions {
		sanctions = append(sanctions, toSanctionView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": toReservationView(out.Reservation),
		"no_show":     out.NoShow,
		"sanctions":   sanctions,
	})
}

func onRoster(r model.Reservation, participantID string) bool {
	for _, p := range r.Roster {
		if p.ParticipantID == participantID {
			return true
		}
	}
	return false
}
