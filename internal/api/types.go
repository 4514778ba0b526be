package api

import (
	"time"

	"github.com/hibiki-studio/booking-console/internal/booking"
)

type SessionResponse struct {
	ID          string `json:"id"`
	ClientID    string `json:"client_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	SessionType string `json:"session_type"`
	Format      string `json:"format"`
	Status      string `json:"status"`
	MeetingURL  string `json:"meeting_url,omitempty"`
	EventID     string `json:"calendar_event_id,omitempty"`
}

func toSessionResponse(s booking.Session, loc *time.Location) SessionResponse {
	at := s.ScheduledAt.In(loc)
	return SessionResponse{
		ID:          s.ID,
		ClientID:    s.ClientID,
		Date:        at.Format(booking.DateLayout),
		Time:        at.Format(booking.TimeLayout),
		SessionType: s.SessionType,
		Format:      string(s.Format),
		Status:      string(s.Status),
		MeetingURL:  s.MeetingURL,
		EventID:     s.CalendarEventID,
	}
}

type DayResponse struct {
	Date     string            `json:"date"`
	Sessions []SessionResponse `json:"sessions"`
}

type ErrorResponse struct {
	Error   string               `json:"error"`
	Details string               `json:"details,omitempty"`
	Fields  []booking.FieldError `json:"fields,omitempty"`
}
