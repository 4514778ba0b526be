package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hibiki-studio/booking-console/internal/store"
)

// Reconciler repairs double-booked slots after the fact. The record store
// cannot prevent two near-simultaneous bookings from both landing on one
// slot; when that happens the earliest-created session keeps it and the
// later duplicates are canceled.
type Reconciler struct {
	store  store.Store
	loc    *time.Location
	logger *slog.Logger

	now func() time.Time
}

func NewReconciler(st store.Store, loc *time.Location, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: st, loc: loc, logger: logger, now: time.Now}
}

// ReconcileSlot inspects one (date, time-of-day) slot. It returns the id of
// the surviving session, or "" when the slot holds at most one.
func (r *Reconciler) ReconcileSlot(ctx context.Context, at time.Time) (string, error) {
	sessions, err := r.activeSessions(ctx)
	if err != nil {
		return "", err
	}

	key := at.In(r.loc).Format(scheduleLayout)
	var group []Session
	for _, s := range sessions {
		if s.SlotKey() == key {
			group = append(group, s)
		}
	}

	if len(group) < 2 {
		return "", nil
	}
	return r.resolveGroup(ctx, group)
}

// ReconcileAll sweeps every occupied slot, for the periodic worker.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	sessions, err := r.activeSessions(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string][]Session)
	for _, s := range sessions {
		key := s.SlotKey()
		groups[key] = append(groups[key], s)
	}

	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		if _, err := r.resolveGroup(ctx, group); err != nil {
			r.logger.Error("slot reconciliation failed", "slot", key, "err", err)
		}
	}
	return nil
}

func (r *Reconciler) activeSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.store.ListAll(ctx, store.CollectionSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []Session
	for _, row := range rows {
		s, err := FromRow(row, r.loc)
		if err != nil {
			r.logger.Warn("skipping unreadable session row", "err", err)
			continue
		}
		if s.Status.Occupies() {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// resolveGroup cancels all but the earliest-created session in a slot group.
// Ties on creation time fall back to id order, which is stable because ids
// embed their mint time.
func (r *Reconciler) resolveGroup(ctx context.Context, group []Session) (string, error) {
	sort.Slice(group, func(i, j int) bool {
		if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		}
		return group[i].ID < group[j].ID
	})

	kept := group[0]
	now := r.now().In(r.loc)

	for _, dup := range group[1:] {
		if err := r.store.UpdateByID(ctx, store.CollectionSessions, dup.ID, statusRow(StatusCanceled, now, r.loc)); err != nil {
			return kept.ID, fmt.Errorf("cancel duplicate %s: %w", dup.ID, err)
		}
		r.logger.Warn("duplicate booking canceled",
			"slot", kept.SlotKey(),
			"kept", kept.ID,
			"canceled", dup.ID,
		)
	}

	return kept.ID, nil
}
