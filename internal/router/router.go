// Package router registers the HTTP routes and their middleware chains.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Matipousi/UcuDB1/internal/handler"
	"github.com/Matipousi/UcuDB1/internal/middleware"
	"github.com/Matipousi/UcuDB1/internal/utils"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Reservations *handler.ReservationHandler
	Admin        *handler.AdminHandler
	Catalog      *handler.CatalogHandler
	Ready        echo.HandlerFunc
}

// Middleware bundles the optional per-group middleware.  Nil entries are
// skipped.
type Middleware struct {
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterRoutes registers health checks on e.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready)
	}
}

// RegisterPublic registers the unauthenticated catalogue routes.  Only
// the slot catalogue is cached; availability changes with every booking
// and is always read fresh.
func RegisterPublic(e *echo.Echo, h Handlers, mw Middleware) {
	e.GET("/v1/slots", h.Catalog.ListSlots, nonNil(mw.Cache)...)
	e.GET("/v1/rooms/available", h.Catalog.ListAvailableRooms)
}

// RegisterBooking registers the authenticated participant routes and the
// admin-only attendance update.
func RegisterBooking(e *echo.Echo, h Handlers, mw Middleware, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleParticipant, utils.RoleAdmin))

	g.POST("/reservations", h.Reservations.Create, nonNil(mw.RateLimit)...)
	g.GET("/reservations/:id", h.Reservations.Get)
	g.GET("/my-reservations", h.Reservations.ListMine)
	g.GET("/participants/:id/sanctions", h.Admin.ListSanctions)
	g.PUT("/reservations/:id/attendance", h.Reservations.UpdateAttendance, middleware.RequireRole(utils.RoleAdmin))
}

// RegisterAdmin registers the /v1/admin routes.  Every route requires the
// admin role.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleAdmin))

	g.PATCH("/reservations/:id/status", h.Admin.UpdateStatus)
	g.POST("/sanctions", h.Admin.CreateSanction)
	g.DELETE("/participants/:id/enrollments", h.Admin.RemoveEnrollment)
}

// Register wires every route group onto e.
func Register(e *echo.Echo, h Handlers, mw Middleware, jwtSecret string) {
	RegisterRoutes(e, h)
	RegisterPublic(e, h, mw)
	RegisterBooking(e, h, mw, jwtSecret)
	RegisterAdmin(e, h, jwtSecret)
}

func nonNil(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
