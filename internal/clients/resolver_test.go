package clients

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibiki-studio/booking-console/internal/store"
)

func testResolver(t *testing.T) (*IdentityResolver, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIdentityResolver(st, time.UTC, logger), st
}

func TestResolveCreatesNewClient(t *testing.T) {
	ctx := context.Background()
	r, st := testResolver(t)

	id, err := r.Resolve(ctx, "aiko@example.com", "Aiko Tanaka", Contact{Phone: "090-0000-0000"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rows, err := st.ListAll(ctx, store.CollectionClients)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	c, err := FromRow(rows[0], time.UTC)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, StatusTrialBefore, c.Status)
	assert.Equal(t, FormatEither, c.PreferredFormat)
}

func TestResolveMatchesEmailCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	r, st := testResolver(t)

	first, err := r.Resolve(ctx, "Aiko@Example.com", "Aiko Tanaka", Contact{})
	require.NoError(t, err)

	second, err := r.Resolve(ctx, "aiko@EXAMPLE.COM", "Aiko T.", Contact{})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	rows, err := st.ListAll(ctx, store.CollectionClients)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "a returning client must not create a second record")
}

func TestResolvePrefersMostRecentlyCreated(t *testing.T) {
	ctx := context.Background()
	r, st := testResolver(t)

	older := Client{
		ID:        "c-old",
		Name:      "Aiko Tanaka",
		Email:     "aiko@example.com",
		Status:    StatusOngoing,
		CreatedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	newer := Client{
		ID:        "c-new",
		Name:      "Aiko Tanaka",
		Email:     "AIKO@example.com",
		Status:    StatusOngoing,
		CreatedAt: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.Append(ctx, store.CollectionClients, older.ToRow(time.UTC)))
	require.NoError(t, st.Append(ctx, store.CollectionClients, newer.ToRow(time.UTC)))

	id, err := r.Resolve(ctx, "aiko@example.com", "Aiko Tanaka", Contact{})
	require.NoError(t, err)
	assert.Equal(t, "c-new", id)
}

func TestClientRowRoundTrip(t *testing.T) {
	loc := time.UTC
	c := Client{
		ID:              "c1",
		Name:            "Aiko Tanaka",
		PhoneticName:    "たなか あいこ",
		Email:           "aiko@example.com",
		Phone:           "090-0000-0000",
		Address:         "Shibuya, Tokyo",
		Gender:          "female",
		Birthdate:       "1992-04-01",
		PreferredFormat: FormatOnline,
		Status:          StatusTrialScheduled,
		Notes:           "prefers evenings",
		CreatedAt:       time.Date(2026, 3, 14, 9, 30, 0, 0, loc),
	}

	got, err := FromRow(c.ToRow(loc), loc)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
