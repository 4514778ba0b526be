package booking

import (
	"fmt"
	"time"

	"github.com/hibiki-studio/booking-console/internal/store"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusPostponed Status = "postponed"
)

// Occupies reports whether a session in this status holds its slot. Canceled
// and postponed sessions free the slot again.
func (s Status) Occupies() bool {
	return s == StatusScheduled || s == StatusCompleted
}

type Format string

const (
	FormatOnline   Format = "online"
	FormatInPerson Format = "in-person"
)

const SessionTypeTrial = "trial"

// Session is one booking record tied to one client and one slot.
type Session struct {
	ID              string
	ClientID        string
	ScheduledAt     time.Time // business timezone
	SessionType     string    // trial | continuation-N | custom
	Format          Format
	Status          Status
	MeetingURL      string // set only when Format is online
	CalendarEventID string // weak back-reference to the scheduling service
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     time.Time // zero until the session completes
}

const (
	labelID              = "Session ID"
	labelClientID        = "Client ID"
	labelScheduledAt     = "Scheduled At"
	labelSessionType     = "Session Type"
	labelFormat          = "Format"
	labelStatus          = "Status"
	labelMeetingURL      = "Meeting URL"
	labelCalendarEventID = "Calendar Event ID"
	labelNotes           = "Notes"
	labelCreatedAt       = "Created At"
	labelUpdatedAt       = "Updated At"
	labelCompletedAt     = "Completed At"
)

const (
	scheduleLayout  = "2006-01-02 15:04"
	timestampLayout = "2006-01-02 15:04:05"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

func (s Session) ToRow(loc *time.Location) store.Row {
	row := store.Row{
		labelID:              s.ID,
		labelClientID:        s.ClientID,
		labelScheduledAt:     s.ScheduledAt.In(loc).Format(scheduleLayout),
		labelSessionType:     s.SessionType,
		labelFormat:          string(s.Format),
		labelStatus:          string(s.Status),
		labelMeetingURL:      s.MeetingURL,
		labelCalendarEventID: s.CalendarEventID,
		labelNotes:           s.Notes,
		labelCreatedAt:       s.CreatedAt.In(loc).Format(timestampLayout),
		labelUpdatedAt:       s.UpdatedAt.In(loc).Format(timestampLayout),
	}
	if !s.CompletedAt.IsZero() {
		row[labelCompletedAt] = s.CompletedAt.In(loc).Format(timestampLayout)
	}
	return row
}

func FromRow(r store.Row, loc *time.Location) (Session, error) {
	scheduledAt, err := r.Time(labelScheduledAt, scheduleLayout, loc)
	if err != nil {
		return Session{}, fmt.Errorf("session row: %w", err)
	}
	createdAt, err := r.Time(labelCreatedAt, timestampLayout, loc)
	if err != nil {
		return Session{}, fmt.Errorf("session row: %w", err)
	}
	updatedAt, err := r.Time(labelUpdatedAt, timestampLayout, loc)
	if err != nil {
		return Session{}, fmt.Errorf("session row: %w", err)
	}
	completedAt, err := r.Time(labelCompletedAt, timestampLayout, loc)
	if err != nil {
		return Session{}, fmt.Errorf("session row: %w", err)
	}

	return Session{
		ID:              r[labelID],
		ClientID:        r[labelClientID],
		ScheduledAt:     scheduledAt,
		SessionType:     r[labelSessionType],
		Format:          Format(r[labelFormat]),
		Status:          Status(r[labelStatus]),
		MeetingURL:      r[labelMeetingURL],
		CalendarEventID: r[labelCalendarEventID],
		Notes:           r[labelNotes],
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		CompletedAt:     completedAt,
	}, nil
}

// SlotKey identifies the (date, time-of-day) pair a session occupies.
func (s Session) SlotKey() string {
	return s.ScheduledAt.Format(scheduleLayout)
}

func statusRow(status Status, at time.Time, loc *time.Location) store.Row {
	row := store.Row{
		labelStatus:    string(status),
		labelUpdatedAt: at.In(loc).Format(timestampLayout),
	}
	if status == StatusCompleted {
		row[labelCompletedAt] = at.In(loc).Format(timestampLayout)
	}
	return row
}
