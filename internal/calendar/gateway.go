// Package calendar talks to the external scheduling service. The service
// holds a copy of scheduling facts and can auto-provision virtual-meeting
// links; it is never the source of truth for slot occupancy unless the
// record store is unavailable, and it must be treated as unreliable.
package calendar

import (
	"context"
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MeetingURL  string    `json:"meeting_url,omitempty"`
}

type EventSpec struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	WithMeetingLink bool      `json:"with_meeting_link"`
}

type Gateway interface {
	// ListEvents returns the events overlapping [from, to).
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, spec EventSpec) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
