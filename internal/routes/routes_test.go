package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"calendar-booking-server/internal/config"
	"calendar-booking-server/internal/handlers"
	"calendar-booking-server/internal/services"
	"calendar-booking-server/internal/store"
)

const (
	adminEmail    = "owner@example.com"
	adminPassword = "correct horse"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *gin.Engine
	repo   *store.MemoryStore
}

func newTestServer(t *testing.T, checks map[string]handlers.HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:            "test-secret",
		JWTExpirationMinutes: 5,
		Admin:                config.AdminConfig{Email: adminEmail, PasswordHash: string(hash)},
		Notify:               config.NotifyConfig{MaxAttempts: 10},
		RateLimit:            config.RateLimitConfig{BookingsPerMinute: 600, Burst: 100},
	}

	repo := store.NewMemoryStore()
	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	svc := services.NewBookingService(repo, services.NewSlotGenerator(14, nil, time.UTC, nil), nil, nil).
		WithClock(func() time.Time { return now })
	_, err = svc.EnsureWindow(context.Background())
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, Deps{Config: cfg, Service: svc, Store: repo, Logger: zap.NewNop(), Checks: checks})
	return &testServer{router: router, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(path, "/api/") && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": adminEmail, "password": adminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func booking(slotID string) map[string]string {
	return map[string]string{
		"date":        slotID[:10],
		"timeSlotId":  slotID,
		"name":        "Ada",
		"email":       "ada@example.com",
		"meetingType": "consultation",
		"topic":       "Portfolio review",
	}
}

func TestCalendarReadEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodGet, "/api/v1/calendar/days", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var days []string
	require.NoError(t, json.Unmarshal(env.Data, &days))
	require.Len(t, days, 10)
	assert.Equal(t, "2025-01-06", days[0])

	w, env = s.do(t, http.MethodGet, "/api/v1/calendar/slots?date=2025-01-06", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var slots []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots, 9)
	assert.Equal(t, "2025-01-06-0", slots[0]["id"])
	assert.Equal(t, true, slots[0]["available"])

	w, env = s.do(t, http.MethodGet, "/api/v1/calendar/slots?date=2030-01-01", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, _ = s.do(t, http.MethodGet, "/api/v1/calendar/slots", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/calendar/slots?date=06/01/2025", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/calendar/meeting-types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var types []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &types))
	require.Len(t, types, 4)
	assert.Equal(t, "quick", types[0]["id"])
}

func TestCreateAppointment(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodPost, "/api/v1/calendar/appointments", "", booking("2025-01-07-2"))
	require.Equal(t, http.StatusCreated, w.Code)
	var appt map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	assert.NotEmpty(t, appt["id"])
	assert.Equal(t, "2025-01-07-2", appt["timeSlotId"])

	w, env = s.do(t, http.MethodPost, "/api/v1/calendar/appointments", "", booking("2025-01-07-2"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The selected time slot is no longer available", env.Error)

	w, env = s.do(t, http.MethodGet, "/api/v1/calendar/slots?date=2025-01-07", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var slots []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	assert.Equal(t, false, slots[2]["available"])
}

func TestCreateAppointmentRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)

	cases := map[string]map[string]string{
		"missing name":    func() map[string]string { b := booking("2025-01-07-0"); delete(b, "name"); return b }(),
		"bad email":       func() map[string]string { b := booking("2025-01-07-0"); b["email"] = "nope"; return b }(),
		"unknown type":    func() map[string]string { b := booking("2025-01-07-0"); b["meetingType"] = "lunch"; return b }(),
		"mismatched date": func() map[string]string { b := booking("2025-01-07-0"); b["date"] = "2025-01-08"; return b }(),
		"nonexistent slot": booking("2025-01-07-42"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/v1/calendar/appointments", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, env.Error)
		})
	}

	appts, err := s.repo.ListAppointments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestAppointmentICS(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodPost, "/api/v1/calendar/appointments", "", booking("2025-01-08-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	var appt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &appt))

	w, _ = s.do(t, http.MethodGet, "/api/v1/calendar/appointments/"+appt.ID+"/ics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	body := w.Body.String()
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "DTSTART:20250108T100000Z")
	assert.Contains(t, body, "DTEND:20250108T103000Z")

	w, _ = s.do(t, http.MethodGet, "/api/v1/calendar/appointments/does-not-exist/ics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(t, http.MethodGet, "/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"available"}`, string(env.Data))

	w, _ = s.do(t, http.MethodPut, "/api/v1/status", "", map[string]string{"status": "busy"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.login(t)
	w, _ = s.do(t, http.MethodPut, "/api/v1/status", token, map[string]string{"status": "busy"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPut, "/api/v1/status", token, map[string]string{"status": "asleep"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "status")

	w, env = s.do(t, http.MethodGet, "/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"busy"}`, string(env.Data))
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": adminEmail, "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "someone@example.com", "password": adminPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/calendar/appointments", "/api/v1/outbox/pending"} {
		w, _ := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		w, _ = s.do(t, http.MethodGet, path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w, env := s.do(t, http.MethodPost, "/api/v1/calendar/appointments", "", booking("2025-01-09-4"))
	require.Equal(t, http.StatusCreated, w.Code)
	var appt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &appt))

	token := s.login(t)

	w, env = s.do(t, http.MethodGet, "/api/v1/calendar/appointments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var appts []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &appts))
	require.Len(t, appts, 1)

	w, _ = s.do(t, http.MethodGet, "/api/v1/calendar/appointments/"+appt.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/calendar/appointments/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/outbox/pending", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "booking.created", events[0]["type"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/outbox/pending?limit=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, map[string]handlers.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","dependencies":{"database":"UP"}}`, w.Body.String())

	s = newTestServer(t, map[string]handlers.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
