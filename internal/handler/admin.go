package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Matipousi/UcuDB1/internal/middleware"
	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
	"github.com/Matipousi/UcuDB1/internal/utils"
)

// AdminHandler groups the administrative operations that sit outside the
// booking rules: status changes, manual sanctions and enrollment removal.
type AdminHandler struct {
	ParticipantRepo *repository.ParticipantRepo
	ReservationRepo *repository.ReservationRepo
	SanctionRepo    *repository.SanctionRepo
	Now             func() time.Time
}

// NewAdminHandler constructs an AdminHandler using the wall clock.
func NewAdminHandler(participants *repository.ParticipantRepo, reservations *repository.ReservationRepo, sanctions *repository.SanctionRepo) *AdminHandler {
	if participants == nil || reservations == nil || sanctions == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{
		ParticipantRepo: participants,
		ReservationRepo: reservations,
		SanctionRepo:    sanctions,
		Now:             time.Now,
	}
}

// UpdateStatus handles PATCH /v1/admin/reservations/:id/status.  Only
// completed and cancelled may be set, and only on an active reservation.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.ReservationStatus(body.Status)
	if status != model.StatusCompleted && status != model.StatusCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be completed or cancelled"})
	}
	err := h.ReservationRepo.UpdateStatus(c.Request().Context(), id, status)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not active"})
	case err != nil:
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": string(status)})
}

type createSanctionRequest struct {
	ParticipantID string     `json:"participant_id"`
	StartDate     model.Date `json:"start_date"`
	EndDate       model.Date `json:"end_date"`
}

// CreateSanction handles POST /v1/admin/sanctions.  The end date must be
// after the start date.
func (h *AdminHandler) CreateSanction(c echo.Context) error {
	var body createSanctionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ParticipantID == "" || body.StartDate.IsZero() || body.EndDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "participant_id, start_date and end_date are required"})
	}
	if !body.EndDate.After(body.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
	}
	ctx := c.Request().Context()
	if _, err := h.ParticipantRepo.GetByID(ctx, body.ParticipantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
		}
		return internalError(c, err)
	}
	s := model.Sanction{ParticipantID: body.ParticipantID, StartDate: body.StartDate, EndDate: body.EndDate}
	if err := h.SanctionRepo.Create(ctx, &s); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, toSanctionView(s))
}

// ListSanctions handles GET /v1/participants/:id/sanctions.  Participants
// may read their own sanctions; admins may read anyone's.  With
// ?active=true only sanctions in force today are listed.
func (h *AdminHandler) ListSanctions(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pid := c.Param("id")
	if pid != caller && middleware.Role(c) != utils.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var activeOn *model.Date
	if c.QueryParam("active") == "true" {
		today := model.DateOf(h.Now())
		activeOn = &today
	}
	list, err := h.SanctionRepo.ListByParticipant(c.Request().Context(), pid, activeOn)
	if err != nil {
		return internalError(c, err)
	}
	out := make([]sanctionView, 0, len(list))
	for _, s := range list {
		out = append(out, toSanctionView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"sanctions": out})
}

// RemoveEnrollment handles DELETE /v1/admin/participants/:id/enrollments.
// Removing a participant's last enrollment is refused with 409.
func (h *AdminHandler) RemoveEnrollment(c echo.Context) error {
	var body struct {
		Program   string `json:"program"`
		FacultyID int64  `json:"faculty_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Program == "" || body.FacultyID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "program and faculty_id are required"})
	}
	err := h.ParticipantRepo.RemoveEnrollment(c.Request().Context(), c.Param("id"), body.Program, body.FacultyID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "enrollment not found"})
	case errors.Is(err, repository.ErrLastEnrollment):
		return c.JSON(http.StatusConflict, echo.Map{"error": "participant must keep at least one enrollment"})
	case err != nil:
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
