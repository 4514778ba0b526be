package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hibiki-studio/booking-console/internal/calendar"
	"github.com/hibiki-studio/booking-console/internal/clients"
	"github.com/hibiki-studio/booking-console/internal/notify"
	"github.com/hibiki-studio/booking-console/internal/store"
)

const (
	TemplateClientConfirmation = "booking-confirmation"
	TemplateOperatorNotice     = "booking-notice"
)

// Request is a public booking submission.
type Request struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	SessionType string `json:"session_type" validate:"required"`
	Format      string `json:"format" validate:"required,oneof=online in-person"`
	Notes       string `json:"notes"`
}

// Result is what a successful booking returns. CalendarUsed distinguishes a
// real meeting link from a placeholder for support purposes.
type Result struct {
	SessionID    string `json:"session_id"`
	ClientID     string `json:"client_id"`
	MeetingURL   string `json:"meeting_url,omitempty"`
	CalendarUsed bool   `json:"calendar_used"`
}

// Coordinator orchestrates the booking flow: validate, re-check the slot,
// resolve the client, allocate a meeting resource, persist, reconcile,
// notify.
type Coordinator struct {
	store      store.Store
	resolver   *clients.IdentityResolver
	calc       *SlotCalculator
	gateway    calendar.Gateway
	dispatcher *notify.Dispatcher
	reconciler *Reconciler
	settings   Settings
	validate   *validator.Validate
	logger     *slog.Logger

	now func() time.Time
}

func NewCoordinator(
	st store.Store,
	resolver *clients.IdentityResolver,
	calc *SlotCalculator,
	gw calendar.Gateway,
	dispatcher *notify.Dispatcher,
	settings Settings,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:      st,
		resolver:   resolver,
		calc:       calc,
		gateway:    gw,
		dispatcher: dispatcher,
		reconciler: NewReconciler(st, settings.Location, logger),
		settings:   settings,
		validate:   newValidator(),
		logger:     logger,
		now:        time.Now,
	}
}

// Book runs the booking flow to completion. The availability re-check and
// the append are not atomic (the record store has no locking or CAS), so two
// near-simultaneous requests can both pass the check; the post-write
// reconciliation pass keeps the earliest-created session and cancels the
// rest.
func (c *Coordinator) Book(ctx context.Context, req Request) (*Result, error) {
	if verr := c.validateRequest(req); verr != nil {
		return nil, verr
	}

	loc := c.settings.Location
	scheduledAt, err := time.ParseInLocation(scheduleLayout, req.Date+" "+req.Time, loc)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "date", Reason: "does not form a valid date-time with time"}}}
	}

	day, err := c.calc.AvailableSlots(ctx, scheduledAt)
	if err != nil {
		return nil, &PersistenceError{Op: "availability check", Err: err}
	}
	if !day.Available(req.Time) {
		return nil, ErrSlotConflict
	}

	clientID, err := c.resolver.Resolve(ctx, req.Email, req.Name, clients.Contact{
		Phone: req.Phone,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "client resolution", Err: err}
	}

	meetingURL, eventID, calendarUsed := c.allocateMeetingResource(ctx, req, scheduledAt)

	now := c.now().In(loc)
	session := Session{
		ID:              store.NewRecordID(),
		ClientID:        clientID,
		ScheduledAt:     scheduledAt,
		SessionType:     req.SessionType,
		Format:          Format(req.Format),
		Status:          StatusScheduled,
		MeetingURL:      meetingURL,
		CalendarEventID: eventID,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := c.store.Append(ctx, store.CollectionSessions, session.ToRow(loc)); err != nil {
		return nil, &PersistenceError{Op: "session append", Err: err}
	}

	c.logger.Info("session booked",
		"session_id", session.ID,
		"client_id", clientID,
		"scheduled_at", session.SlotKey(),
		"format", req.Format,
		"calendar_used", calendarUsed,
	)

	// Post-write reconciliation: if a concurrent booking slipped through the
	// re-check, the earliest-created session keeps the slot.
	keptID, err := c.reconciler.ReconcileSlot(ctx, scheduledAt)
	if err != nil {
		c.logger.Error("slot reconciliation failed", "slot", session.SlotKey(), "err", err)
	} else if keptID != "" && keptID != session.ID {
		return nil, ErrSlotConflict
	}

	c.advanceClientFunnel(ctx, clientID, req.SessionType)

	c.dispatcher.Go(
		notify.Message{
			Recipient:  req.Email,
			TemplateID: TemplateClientConfirmation,
			Data: map[string]string{
				"name":        req.Name,
				"date":        req.Date,
				"time":        req.Time,
				"format":      req.Format,
				"meeting_url": meetingURL,
			},
		},
		notify.Message{
			Recipient:  c.settings.OperatorEmail,
			TemplateID: TemplateOperatorNotice,
			Data: map[string]string{
				"session_id":   session.ID,
				"client_id":    clientID,
				"client_name":  req.Name,
				"client_email": req.Email,
				"date":         req.Date,
				"time":         req.Time,
				"session_type": req.SessionType,
				"format":       req.Format,
			},
		},
	)

	return &Result{
		SessionID:    session.ID,
		ClientID:     clientID,
		MeetingURL:   meetingURL,
		CalendarUsed: calendarUsed,
	}, nil
}

// allocateMeetingResource decides the meeting link and calendar event for a
// booking. Failures here degrade the booking, never fail it: an online
// session falls back to a placeholder link, an in-person session simply goes
// without the operator-visibility event.
func (c *Coordinator) allocateMeetingResource(ctx context.Context, req Request, at time.Time) (meetingURL, eventID string, calendarUsed bool) {
	online := Format(req.Format) == FormatOnline

	if c.settings.CalendarEnabled && c.gateway != nil {
		ev, err := c.gateway.CreateEvent(ctx, calendar.EventSpec{
			Title:           fmt.Sprintf("%s session: %s", req.SessionType, req.Name),
			Description:     fmt.Sprintf("Booked via the public form (%s).", req.Format),
			StartTime:       at,
			EndTime:         at.Add(c.settings.SessionLength),
			WithMeetingLink: online,
		})
		if err != nil {
			c.logger.Warn("calendar event creation failed, degrading", "err", err)
		} else {
			eventID = ev.ID
			calendarUsed = true
			if online {
				meetingURL = ev.MeetingURL
			}
		}
	}

	if online && meetingURL == "" {
		meetingURL = calendar.FallbackMeetingURL(c.settings.MeetingLinkBase, at)
	}

	return meetingURL, eventID, calendarUsed
}

// advanceClientFunnel moves a trial-before client to trial-scheduled when a
// trial session lands. Failures are logged; the booking already succeeded.
func (c *Coordinator) advanceClientFunnel(ctx context.Context, clientID, sessionType string) {
	if sessionType != SessionTypeTrial {
		return
	}

	row, err := c.store.FindByID(ctx, store.CollectionClients, clientID)
	if err != nil {
		c.logger.Warn("funnel update skipped, client not readable", "client_id", clientID, "err", err)
		return
	}

	client, err := clients.FromRow(row, c.settings.Location)
	if err != nil || client.Status != clients.StatusTrialBefore {
		return
	}

	if err := c.store.UpdateByID(ctx, store.CollectionClients, clientID, clients.StatusRow(clients.StatusTrialScheduled)); err != nil {
		c.logger.Warn("funnel update failed", "client_id", clientID, "err", err)
	}
}

// Cancel marks a session canceled, freeing its slot, and best-effort removes
// the mirrored calendar event.
func (c *Coordinator) Cancel(ctx context.Context, sessionID string) (*Session, error) {
	session, err := c.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusCanceled {
		return nil, ErrAlreadyCanceled
	}

	now := c.now().In(c.settings.Location)
	if err := c.store.UpdateByID(ctx, store.CollectionSessions, sessionID, statusRow(StatusCanceled, now, c.settings.Location)); err != nil {
		return nil, &PersistenceError{Op: "session cancel", Err: err}
	}

	if session.CalendarEventID != "" && c.settings.CalendarEnabled && c.gateway != nil {
		if err := c.gateway.DeleteEvent(ctx, session.CalendarEventID); err != nil {
			c.logger.Warn("calendar event removal failed", "event_id", session.CalendarEventID, "err", err)
		}
	}

	session.Status = StatusCanceled
	session.UpdatedAt = now
	c.logger.Info("session canceled", "session_id", sessionID, "slot", session.SlotKey())
	return &session, nil
}

// Complete marks a session completed and advances a trial client's funnel.
func (c *Coordinator) Complete(ctx context.Context, sessionID string) (*Session, error) {
	session, err := c.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusScheduled {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, ErrInvalidStatusTransition)
	}

	now := c.now().In(c.settings.Location)
	if err := c.store.UpdateByID(ctx, store.CollectionSessions, sessionID, statusRow(StatusCompleted, now, c.settings.Location)); err != nil {
		return nil, &PersistenceError{Op: "session complete", Err: err}
	}

	if session.SessionType == SessionTypeTrial {
		if err := c.store.UpdateByID(ctx, store.CollectionClients, session.ClientID, clients.StatusRow(clients.StatusTrialCompleted)); err != nil {
			c.logger.Warn("funnel update failed", "client_id", session.ClientID, "err", err)
		}
	}

	session.Status = StatusCompleted
	session.UpdatedAt = now
	session.CompletedAt = now
	return &session, nil
}

// ListDay returns the sessions scheduled on a date, for the operator view.
func (c *Coordinator) ListDay(ctx context.Context, date time.Time) ([]Session, error) {
	rows, err := c.store.ListAll(ctx, store.CollectionSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	loc := c.settings.Location
	var result []Session
	for _, row := range rows {
		s, err := FromRow(row, loc)
		if err != nil {
			c.logger.Warn("skipping unreadable session row", "err", err)
			continue
		}
		at := s.ScheduledAt.In(loc)
		if at.Year() == date.Year() && at.YearDay() == date.YearDay() {
			result = append(result, s)
		}
	}
	return result, nil
}

func (c *Coordinator) loadSession(ctx context.Context, sessionID string) (Session, error) {
	row, err := c.store.FindByID(ctx, store.CollectionSessions, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return FromRow(row, c.settings.Location)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c *Coordinator) validateRequest(req Request) *ValidationError {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "request", Reason: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
	}
	return &ValidationError{Fields: fields}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must match the format " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
