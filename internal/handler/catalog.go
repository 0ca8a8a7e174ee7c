package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
)

// CatalogHandler exposes read-only catalogue data: the slot catalogue and
// room availability.  No authentication is required.
type CatalogHandler struct {
	SlotRepo *repository.TimeSlotRepo
	RoomRepo *repository.RoomRepo
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(slots *repository.TimeSlotRepo, rooms *repository.RoomRepo) *CatalogHandler {
	if slots == nil || rooms == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{SlotRepo: slots, RoomRepo: rooms}
}

// ListSlots handles GET /v1/slots.
func (h *CatalogHandler) ListSlots(c echo.Context) error {
	slots, err := h.SlotRepo.List(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

type roomView struct {
	Room       string `json:"room"`
	Building   string `json:"building"`
	Capacity   int    `json:"capacity"`
	AccessType string `json:"access_type"`
}

// ListAvailableRooms handles GET /v1/rooms/available?date=&slot=.  It
// lists the rooms without an active reservation at that date and slot.
func (h *CatalogHandler) ListAvailableRooms(c echo.Context) error {
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slot, err := strconv.Atoi(c.QueryParam("slot"))
	if err != nil || slot <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot must be a positive integer"})
	}
	rooms, err := h.RoomRepo.ListAvailable(c.Request().Context(), date, slot)
	if err != nil {
		return internalError(c, err)
	}
	out := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomView{Room: r.Name, Building: r.Building, Capacity: r.Capacity, AccessType: string(r.AccessType)})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slot_id": slot, "rooms": out})
}
