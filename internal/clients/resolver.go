package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiki-studio/booking-console/internal/store"
)

// Contact carries the optional contact fields that accompany a first booking.
type Contact struct {
	Phone           string
	PreferredFormat Format
	Notes           string
}

// IdentityResolver maps an inbound (email, name) pair to a client id.
type IdentityResolver struct {
	store  store.Store
	loc    *time.Location
	logger *slog.Logger
}

func NewIdentityResolver(st store.Store, loc *time.Location, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{store: st, loc: loc, logger: logger}
}

// Resolve returns the id of the client whose email matches case-insensitively,
// or mints a new client record when no match exists. The store enforces no
// email uniqueness; when several clients share an email the most recently
// created one wins. The lookup-then-append window is not safe against
// concurrent duplicate submissions from the same email.
func (r *IdentityResolver) Resolve(ctx context.Context, email, name string, contact Contact) (string, error) {
	rows, err := r.store.ListAll(ctx, store.CollectionClients)
	if err != nil {
		return "", fmt.Errorf("list clients: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(email))

	var match *Client
	for _, row := range rows {
		c, err := FromRow(row, r.loc)
		if err != nil {
			r.logger.Warn("skipping unreadable client row", "err", err)
			continue
		}
		if strings.ToLower(strings.TrimSpace(c.Email)) != needle {
			continue
		}
		// Newest record carries the freshest contact details.
		if match == nil || !c.CreatedAt.Before(match.CreatedAt) {
			cc := c
			match = &cc
		}
	}

	if match != nil {
		return match.ID, nil
	}

	preferred := contact.PreferredFormat
	if preferred == "" {
		preferred = FormatEither
	}

	client := Client{
		ID:              store.NewRecordID(),
		Name:            name,
		Email:           strings.TrimSpace(email),
		Phone:           contact.Phone,
		PreferredFormat: preferred,
		Status:          StatusTrialBefore,
		Notes:           contact.Notes,
		CreatedAt:       time.Now().In(r.loc),
	}

	if err := r.store.Append(ctx, store.CollectionClients, client.ToRow(r.loc)); err != nil {
		return "", fmt.Errorf("append client: %w", err)
	}

	r.logger.Info("new client created", "client_id", client.ID)

	return client.ID, nil
}
