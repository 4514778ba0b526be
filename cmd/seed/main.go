package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hibiki-studio/booking-console/internal/booking"
	"github.com/hibiki-studio/booking-console/internal/clients"
	"github.com/hibiki-studio/booking-console/internal/config"
	"github.com/hibiki-studio/booking-console/internal/db"
	"github.com/hibiki-studio/booking-console/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "seed")
	logger.Info("seed starting")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	recordStore := store.NewPgStore(pool)
	if err := recordStore.EnsureSchema(ctx); err != nil {
		logger.Error("schema setup error", "err", err)
		os.Exit(1)
	}

	gofakeit.Seed(time.Now().UnixNano())

	clientIDs, err := seedClients(ctx, recordStore, cfg.Location, 40)
	if err != nil {
		logger.Error("seed clients", "err", err)
		os.Exit(1)
	}
	logger.Info("clients seeded", "count", len(clientIDs))

	count, err := seedSessions(ctx, recordStore, cfg, clientIDs, 120)
	if err != nil {
		logger.Error("seed sessions", "err", err)
		os.Exit(1)
	}
	logger.Info("sessions seeded", "count", count)

	logger.Info("seed complete")
}

func seedClients(ctx context.Context, st store.Store, loc *time.Location, count int) ([]string, error) {
	statuses := []clients.Status{
		clients.StatusTrialBefore,
		clients.StatusTrialScheduled,
		clients.StatusTrialCompleted,
		clients.StatusOngoing,
		clients.StatusCompleted,
	}
	formats := []clients.Format{clients.FormatOnline, clients.FormatInPerson, clients.FormatEither}

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		c := clients.Client{
			ID:              store.NewRecordID(),
			Name:            gofakeit.Name(),
			Email:           gofakeit.Email(),
			Phone:           gofakeit.Phone(),
			Address:         gofakeit.Address().Address,
			Gender:          gofakeit.Gender(),
			Birthdate:       gofakeit.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, loc), time.Date(2010, 12, 31, 0, 0, 0, 0, loc)).Format("2006-01-02"),
			PreferredFormat: formats[gofakeit.Number(0, len(formats)-1)],
			Status:          statuses[gofakeit.Number(0, len(statuses)-1)],
			CreatedAt:       time.Now().In(loc).AddDate(0, 0, -gofakeit.Number(1, 365)),
		}
		if err := st.Append(ctx, store.CollectionClients, c.ToRow(loc)); err != nil {
			return nil, err
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// seedSessions writes historical sessions onto past business days only, one
// per slot, so seeded data never collides with live availability.
func seedSessions(ctx context.Context, st store.Store, cfg config.Config, clientIDs []string, count int) (int, error) {
	loc := cfg.Location
	types := []string{booking.SessionTypeTrial, "continuation-1", "continuation-2", "custom"}

	closed := func(d time.Weekday) bool {
		for _, w := range cfg.ClosedWeekdays {
			if w == d {
				return true
			}
		}
		return false
	}

	seeded := 0
	day := time.Now().In(loc)
	for seeded < count {
		day = day.AddDate(0, 0, -1)
		if closed(day.Weekday()) {
			continue
		}

		for _, slot := range cfg.SlotTimes {
			if seeded >= count {
				break
			}
			if gofakeit.Number(0, 2) == 0 { // leave some past slots empty
				continue
			}

			t, err := time.Parse(booking.TimeLayout, slot)
			if err != nil {
				return seeded, err
			}
			at := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)

			format := booking.FormatInPerson
			meetingURL := ""
			if gofakeit.Bool() {
				format = booking.FormatOnline
				meetingURL = fmt.Sprintf("%s/%d-%s", cfg.MeetingLinkBase, at.Unix(), gofakeit.LetterN(10))
			}

			s := booking.Session{
				ID:          store.NewRecordID(),
				ClientID:    clientIDs[gofakeit.Number(0, len(clientIDs)-1)],
				ScheduledAt: at,
				SessionType: types[gofakeit.Number(0, len(types)-1)],
				Format:      format,
				Status:      booking.StatusCompleted,
				MeetingURL:  meetingURL,
				CreatedAt:   at.AddDate(0, 0, -gofakeit.Number(1, 14)),
				UpdatedAt:   at,
				CompletedAt: at.Add(cfg.SessionLength),
			}
			if err := st.Append(ctx, store.CollectionSessions, s.ToRow(loc)); err != nil {
				return seeded, err
			}
			seeded++
		}
	}
	return seeded, nil
}
