package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiki-studio/booking-console/internal/calendar"
	"github.com/hibiki-studio/booking-console/internal/store"
)

// Settings is the explicit configuration handed to the booking components.
// Nothing in this package reads the environment.
type Settings struct {
	Location        *time.Location
	ClosedWeekdays  []time.Weekday
	SlotTimes       []string // daily template, "15:04", template order
	SessionLength   time.Duration
	CalendarEnabled bool
	MeetingLinkBase string
	OperatorEmail   string
}

func (s Settings) closed(d time.Weekday) bool {
	for _, w := range s.ClosedWeekdays {
		if w == d {
			return true
		}
	}
	return false
}

// ReasonClosedWeekday explains an empty slot set on a non-business day.
const ReasonClosedWeekday = "closed-weekday"

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type DaySlots struct {
	Date   string `json:"date"`
	Open   bool   `json:"open"`
	Reason string `json:"reason,omitempty"`
	Slots  []Slot `json:"slots"`
}

// Available reports whether the given time-of-day is offered and free.
func (d DaySlots) Available(timeOfDay string) bool {
	for _, s := range d.Slots {
		if s.Time == timeOfDay {
			return s.Available
		}
	}
	return false
}

// SlotCalculator derives the offerable slot set for a calendar date from the
// fixed daily template and the sessions already on the books.
type SlotCalculator struct {
	store    store.Store
	gateway  calendar.Gateway
	settings Settings
	logger   *slog.Logger

	now func() time.Time
}

func NewSlotCalculator(st store.Store, gw calendar.Gateway, settings Settings, logger *slog.Logger) *SlotCalculator {
	return &SlotCalculator{
		store:    st,
		gateway:  gw,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// AvailableSlots computes the day's slot grid fresh on every call, in fixed
// template order. Closed weekdays yield an empty grid with a reason code, not
// an error. Past dates yield a fully unavailable grid so the endpoint stays
// idempotent and stateless.
func (c *SlotCalculator) AvailableSlots(ctx context.Context, date time.Time) (DaySlots, error) {
	loc := c.settings.Location
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

	out := DaySlots{Date: day.Format(DateLayout)}

	if c.settings.closed(day.Weekday()) {
		out.Reason = ReasonClosedWeekday
		out.Slots = []Slot{}
		return out, nil
	}
	out.Open = true

	occupied, err := c.occupiedTimes(ctx, day)
	if err != nil {
		return DaySlots{}, err
	}

	now := c.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	past := day.Before(today)

	for _, t := range c.settings.SlotTimes {
		out.Slots = append(out.Slots, Slot{
			Time:      t,
			Available: !past && !occupied[t],
		})
	}

	return out, nil
}

// occupiedTimes gathers the taken times-of-day for a date. The record store
// is the primary occupancy source; when calendar integration is on, the
// day's events count as an additional signal, and a gateway failure falls
// back silently to the store-only answer.
func (c *SlotCalculator) occupiedTimes(ctx context.Context, day time.Time) (map[string]bool, error) {
	occupied := make(map[string]bool)

	rows, err := c.store.ListAll(ctx, store.CollectionSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	for _, row := range rows {
		s, err := FromRow(row, c.settings.Location)
		if err != nil {
			c.logger.Warn("skipping unreadable session row", "err", err)
			continue
		}
		if !s.Status.Occupies() {
			continue
		}
		at := s.ScheduledAt.In(c.settings.Location)
		if at.Year() == day.Year() && at.YearDay() == day.YearDay() {
			occupied[at.Format(TimeLayout)] = true
		}
	}

	if c.settings.CalendarEnabled && c.gateway != nil {
		events, err := c.gateway.ListEvents(ctx, day, day.AddDate(0, 0, 1))
		if err != nil {
			c.logger.Warn("calendar unavailable, using record store only", "err", err)
			return occupied, nil
		}
		for _, ev := range events {
			occupied[ev.StartTime.In(c.settings.Location).Format(TimeLayout)] = true
		}
	}

	return occupied, nil
}
