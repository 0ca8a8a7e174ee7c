package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matipousi/UcuDB1/internal/booking"
	"github.com/Matipousi/UcuDB1/internal/config"
	"github.com/Matipousi/UcuDB1/internal/handler"
	"github.com/Matipousi/UcuDB1/internal/middleware"
	"github.com/Matipousi/UcuDB1/internal/model"
	"github.com/Matipousi/UcuDB1/internal/repository"
	"github.com/Matipousi/UcuDB1/internal/testutil"
	"github.com/Matipousi/UcuDB1/internal/utils"
)

const testSecret = "router-test-secret"

type api struct {
	t  *testing.T
	e  *echo.Echo
	fx *testutil.Fixtures
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWith(t, Middleware{})
}

func newAPIWith(t *testing.T, mw Middleware) *api {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	svc := booking.NewService(booking.Deps{DB: db, Now: testutil.ReferenceTime}, booking.Config{})
	reservations := repository.NewReservationRepo(db)
	admin := handler.NewAdminHandler(repository.NewParticipantRepo(db), reservations, repository.NewSanctionRepo(db))
	admin.Now = testutil.ReferenceTime

	e := echo.New()
	Register(e, Handlers{
		Reservations: handler.NewReservationHandler(svc, reservations),
		Admin:        admin,
		Catalog:      handler.NewCatalogHandler(repository.NewTimeSlotRepo(db), repository.NewRoomRepo(db)),
		Ready:        handler.Ready(db),
	}, mw, testSecret)
	return &api{t: t, e: e, fx: testutil.NewFixtures(t, db)}
}

func (a *api) token(id, role string) string {
	a.t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, role, time.Hour)
	require.NoError(a.t, err)
	return tok.Token
}

func (a *api) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != echo.MIMETextPlainCharsetUTF8 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec.Code, out
}

func bookingBody(room model.Room, slot int, participants ...string) map[string]any {
	return map[string]any{
		"room":         room.Name,
		"building":     room.Building,
		"date":         "2025-03-12",
		"slot_id":      slot,
		"participants": participants,
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	code, _ := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCreateReservationRequiresToken(t *testing.T) {
	a := newAPI(t)
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	code, _ := a.do(http.MethodPost, "/v1/reservations", "", bookingBody(room, 3))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/v1/reservations", "not-a-jwt", bookingBody(room, 3))
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateAndReadReservation(t *testing.T) {
	a := newAPI(t)
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	a.fx.Student("s1")
	a.fx.Student("s2")
	a.fx.Student("s3")

	code, body := a.do(http.MethodPost, "/v1/reservations", a.token("s1", utils.RoleParticipant), bookingBody(room, 3, "s2"))
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "2025-03-12", body["date"])
	roster, ok := body["participants"].([]any)
	require.True(t, ok)
	assert.Len(t, roster, 2)
	id := uint64(body["id"].(float64))

	code, body = a.do(http.MethodGet, pathf("/v1/reservations/%d", id), a.token("s2", utils.RoleParticipant), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "101", body["room"])

	code, _ = a.do(http.MethodGet, pathf("/v1/reservations/%d", id), a.token("s3", utils.RoleParticipant), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, pathf("/v1/reservations/%d", id), a.token("admin", utils.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodGet, "/v1/reservations/999", a.token("admin", utils.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(http.MethodGet, "/v1/my-reservations", a.token("s2", utils.RoleParticipant), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["reservations"], 1)
}

func TestCreateReservationErrorMapping(t *testing.T) {
	a := newAPI(t)
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	grad := a.fx.Room("G1", "Central", 4, model.AccessGraduateOnly)
	a.fx.Student("s1")
	a.fx.Student("s2")
	a.fx.Participant("nobody")

	code, _ := a.do(http.MethodPost, "/v1/reservations", a.token("s1", utils.RoleParticipant), bookingBody(room, 3))
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name       string
		caller     string
		body       map[string]any
		wantStatus int
		wantReason string
	}{
		{"slot taken", "s2", bookingBody(room, 3), http.StatusConflict, "SlotUnavailable"},
		{"restricted room", "s2", bookingBody(grad, 3), http.StatusUnprocessableEntity, "RoomTypeRestricted"},
		{"no enrollment", "nobody", bookingBody(room, 4), http.StatusUnprocessableEntity, "NoEnrollment"},
		{"unknown room", "s2", bookingBody(model.Room{Name: "X", Building: "Central"}, 4), http.StatusUnprocessableEntity, "NoSuchRoom"},
		{"unknown slot", "s2", bookingBody(room, 99), http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := a.do(http.MethodPost, "/v1/reservations", a.token(tt.caller, utils.RoleParticipant), tt.body)
			assert.Equal(t, tt.wantStatus, code, body)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, body["reason"])
			}
		})
	}

	code, _ = a.do(http.MethodPost, "/v1/reservations", a.token("s2", utils.RoleParticipant),
		map[string]any{"room": "101", "building": "Central", "date": "12/03/2025", "slot_id": 4})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCatalogRoutes(t *testing.T) {
	a := newAPI(t)
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	a.fx.Room("102", "Central", 4, model.AccessOpen)
	a.fx.Student("s1")
	a.fx.Reservation(room, model.NewDate(2025, time.March, 12), 3, model.StatusActive, "s1")

	code, body := a.do(http.MethodGet, "/v1/slots", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["slots"], 15)

	code, body = a.do(http.MethodGet, "/v1/rooms/available?date=2025-03-12&slot=3", "", nil)
	require.Equal(t, http.StatusOK, code)
	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].(map[string]any)["room"])

	code, body = a.do(http.MethodGet, "/v1/rooms/available?date=2025-03-12&slot=4", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rooms"], 2)

	code, _ = a.do(http.MethodGet, "/v1/rooms/available?date=tomorrow&slot=4", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(http.MethodGet, "/v1/rooms/available?date=2025-03-12", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateAttendance(t *testing.T) {
	a := newAPI(t)
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	a.fx.Student("s1")
	a.fx.Student("s2")
	id := a.fx.Reservation(room, model.NewDate(2025, time.March, 10), 2, model.StatusActive, "s1", "s2")

	absent := map[string]any{"attendance": []map[string]any{
		{"participant_id": "s1", "attended": false},
		{"participant_id": "s2", "attended": false},
	}}
	code, _ := a.do(http.MethodPut, pathf("/v1/reservations/%d/attendance", id), a.token("s1", utils.RoleParticipant), absent)
	assert.Equal(t, http.StatusForbidden, code)

	partial := map[string]any{"attendance": []map[string]any{{"participant_id": "s1", "attended": true}}}
	code, body := a.do(http.MethodPut, pathf("/v1/reservations/%d/attendance", id), a.token("admin", utils.RoleAdmin), partial)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "RosterMismatch", body["reason"])

	code, body = a.do(http.MethodPut, pathf("/v1/reservations/%d/attendance", id), a.token("admin", utils.RoleAdmin), absent)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["no_show"])
	assert.Len(t, body["sanctions"], 2)
	assert.Equal(t, "no-show", body["reservation"].(map[string]any)["status"])

	code, _ = a.do(http.MethodPut, "/v1/reservations/999/attendance", a.token("admin", utils.RoleAdmin), absent)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminStatusChange(t *testing.T) {
	a := newAPI(t)
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	a.fx.Student("s1")
	id := a.fx.Reservation(room, model.NewDate(2025, time.March, 10), 2, model.StatusActive, "s1")
	admin := a.token("admin", utils.RoleAdmin)

	code, _ := a.do(http.MethodPatch, pathf("/v1/admin/reservations/%d/status", id), a.token("s1", utils.RoleParticipant), map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodPatch, pathf("/v1/admin/reservations/%d/status", id), admin, map[string]string{"status": "no-show"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(http.MethodPatch, pathf("/v1/admin/reservations/%d/status", id), admin, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", body["status"])

	code, _ = a.do(http.MethodPatch, pathf("/v1/admin/reservations/%d/status", id), admin, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPatch, "/v1/admin/reservations/999/status", admin, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSanctionRoutes(t *testing.T) {
	a := newAPI(t)
	a.fx.Student("s1")
	a.fx.Student("s2")
	a.fx.Sanction("s1", model.NewDate(2024, time.September, 1), model.NewDate(2024, time.November, 1))
	admin := a.token("admin", utils.RoleAdmin)

	code, _ := a.do(http.MethodPost, "/v1/admin/sanctions", admin,
		map[string]string{"participant_id": "s1", "start_date": "2025-03-10", "end_date": "2025-03-10"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/v1/admin/sanctions", admin,
		map[string]string{"participant_id": "ghost", "start_date": "2025-03-10", "end_date": "2025-04-10"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body := a.do(http.MethodPost, "/v1/admin/sanctions", admin,
		map[string]string{"participant_id": "s1", "start_date": "2025-03-10", "end_date": "2025-04-10"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "2025-04-10", body["end_date"])

	code, body = a.do(http.MethodGet, "/v1/participants/s1/sanctions", a.token("s1", utils.RoleParticipant), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["sanctions"], 2)

	code, body = a.do(http.MethodGet, "/v1/participants/s1/sanctions?active=true", a.token("s1", utils.RoleParticipant), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["sanctions"], 1)

	code, _ = a.do(http.MethodGet, "/v1/participants/s1/sanctions", a.token("s2", utils.RoleParticipant), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, "/v1/participants/s1/sanctions", admin, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRemoveEnrollment(t *testing.T) {
	a := newAPI(t)
	a.fx.Student("s1")
	admin := a.token("admin", utils.RoleAdmin)
	path := "/v1/admin/participants/s1/enrollments"

	code, _ := a.do(http.MethodDelete, path, admin,
		map[string]any{"program": testutil.UndergradProgram, "faculty_id": a.fx.FacultyID()})
	assert.Equal(t, http.StatusConflict, code)

	a.fx.Enroll("s1", model.RoleStudent, model.LevelGraduate)
	code, _ = a.do(http.MethodDelete, path, admin,
		map[string]any{"program": testutil.UndergradProgram, "faculty_id": a.fx.FacultyID()})
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = a.do(http.MethodDelete, path, admin,
		map[string]any{"program": testutil.UndergradProgram, "faculty_id": a.fx.FacultyID()})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(http.MethodDelete, path, admin, map[string]any{"program": ""})
	assert.Equal(t, http.StatusBadRequest, code)
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func TestAvailabilityIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := middleware.NewRedisCache(config.CacheConfig{
		Enabled:      true,
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
		Methods:      map[string]bool{http.MethodGet: true},
	}, rdb)

	a := newAPIWith(t, Middleware{Cache: cache})
	room := a.fx.Room("101", "Central", 4, model.AccessOpen)
	a.fx.Student("s1")
	const path = "/v1/rooms/available?date=2025-03-12&slot=3"

	code, body := a.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["rooms"], 1)

	code, _ = a.do(http.MethodPost, "/v1/reservations", a.token("s1", utils.RoleParticipant), bookingBody(room, 3))
	require.Equal(t, http.StatusCreated, code)

	code, body = a.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["rooms"], "booked room still listed as available")

	req := httptest.NewRequest(http.MethodGet, "/v1/slots", nil)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/slots", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}
