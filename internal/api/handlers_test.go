package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibiki-studio/booking-console/internal/booking"
	"github.com/hibiki-studio/booking-console/internal/clients"
	"github.com/hibiki-studio/booking-console/internal/notify"
	"github.com/hibiki-studio/booking-console/internal/store"
)

type okSender struct{}

func (okSender) Send(context.Context, string, string, map[string]string) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	settings := booking.Settings{
		Location:        time.UTC,
		ClosedWeekdays:  []time.Weekday{time.Saturday, time.Sunday},
		SlotTimes:       []string{"10:00", "12:00", "14:00", "16:00"},
		SessionLength:   time.Hour,
		MeetingLinkBase: "https://meet.test/r",
		OperatorEmail:   "desk@test.example",
	}

	st := store.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	resolver := clients.NewIdentityResolver(st, settings.Location, logger)
	calc := booking.NewSlotCalculator(st, nil, settings, logger)
	dispatcher := notify.NewDispatcher(okSender{}, logger)
	coord := booking.NewCoordinator(st, resolver, calc, nil, dispatcher, settings, logger)

	router := NewRouter(RouterConfig{
		Calculator:  calc,
		Coordinator: coord,
		Location:    settings.Location,
		Logger:      logger,
		Env:         "test",
		Version:     "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// nextOpenDate returns an upcoming weekday so bookings are always in the
// future relative to the real clock.
func nextOpenDate() string {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func postBooking(t *testing.T, srv *httptest.Server, body map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/bookings", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func validBody(date string) map[string]string {
	return map[string]string{
		"name":         "Aiko Tanaka",
		"email":        "aiko@example.com",
		"phone":        "090-0000-0000",
		"date":         date,
		"time":         "10:00",
		"session_type": "trial",
		"format":       "online",
	}
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAvailabilityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/availability?date=" + nextOpenDate())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	day := decodeJSON[booking.DaySlots](t, resp)
	assert.True(t, day.Open)
	require.Len(t, day.Slots, 4)
	for _, s := range day.Slots {
		assert.True(t, s.Available)
	}
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/availability?date=next-tuesday")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON[ErrorResponse](t, resp)
	assert.Equal(t, "invalid_date", body.Error)

	resp, err = http.Get(srv.URL + "/availability")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBookingEndpointHappyPath(t *testing.T) {
	srv := newTestServer(t)
	date := nextOpenDate()

	resp := postBooking(t, srv, validBody(date))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	result := decodeJSON[booking.Result](t, resp)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.ClientID)
	assert.False(t, result.CalendarUsed)
	assert.True(t, strings.HasPrefix(result.MeetingURL, "https://meet.test/r/"))

	// the slot now shows as taken
	availResp, err := http.Get(srv.URL + "/availability?date=" + date)
	require.NoError(t, err)
	day := decodeJSON[booking.DaySlots](t, availResp)
	assert.False(t, day.Available("10:00"))
}

func TestBookingEndpointValidationNamesFields(t *testing.T) {
	srv := newTestServer(t)

	body := validBody(nextOpenDate())
	delete(body, "email")

	resp := postBooking(t, srv, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeJSON[ErrorResponse](t, resp)
	assert.Equal(t, "validation_failed", payload.Error)
	require.Len(t, payload.Fields, 1)
	assert.Equal(t, "email", payload.Fields[0].Field)
}

func TestBookingEndpointRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/bookings", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBookingEndpointConflict(t *testing.T) {
	srv := newTestServer(t)
	date := nextOpenDate()

	resp := postBooking(t, srv, validBody(date))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	body := validBody(date)
	body["email"] = "botan@example.com"
	resp = postBooking(t, srv, body)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	payload := decodeJSON[ErrorResponse](t, resp)
	assert.Equal(t, "slot_conflict", payload.Error)
}

func TestCancelAndRebookFlow(t *testing.T) {
	srv := newTestServer(t)
	date := nextOpenDate()

	resp := postBooking(t, srv, validBody(date))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := decodeJSON[booking.Result](t, resp)

	cancelResp, err := http.Post(srv.URL+"/sessions/"+result.SessionID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)

	session := decodeJSON[SessionResponse](t, cancelResp)
	assert.Equal(t, "canceled", session.Status)

	// canceling again conflicts
	cancelResp, err = http.Post(srv.URL+"/sessions/"+result.SessionID+"/cancel", "application/json", nil)
	require.NoError(t, err)
	cancelResp.Body.Close()
	assert.Equal(t, http.StatusConflict, cancelResp.StatusCode)

	// the slot is free again
	rebook := postBooking(t, srv, validBody(date))
	defer rebook.Body.Close()
	assert.Equal(t, http.StatusCreated, rebook.StatusCode)
}

func TestCancelUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/sessions/nope/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSessionsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	date := nextOpenDate()

	resp := postBooking(t, srv, validBody(date))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	listResp, err := http.Get(srv.URL + "/sessions?date=" + date)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	day := decodeJSON[DayResponse](t, listResp)
	require.Len(t, day.Sessions, 1)
	assert.Equal(t, "10:00", day.Sessions[0].Time)
	assert.Equal(t, "scheduled", day.Sessions[0].Status)
}
