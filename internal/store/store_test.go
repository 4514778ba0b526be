package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowCoercion(t *testing.T) {
	row := Row{
		"Name":       "Aiko Tanaka",
		"Visits":     "7",
		"Created At": "2026-03-14 09:30:00",
		"Notes":      "",
	}

	n, err := row.Int("Visits")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	// absent and blank fields coerce to zero values
	n, err = row.Int("Missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ts, err := row.Time("Created At", "2006-01-02 15:04:05", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), ts)

	ts, err = row.Time("Notes", "2006-01-02 15:04:05", time.UTC)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	_, err = row.Int("Name")
	assert.Error(t, err)
}

func TestMemStoreAppendAndFind(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore()

	row := Row{"Client ID": "c1", "Name": "Aiko"}
	require.NoError(t, st.Append(ctx, CollectionClients, row))

	got, err := st.FindByID(ctx, CollectionClients, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Aiko", got["Name"])

	_, err = st.FindByID(ctx, CollectionClients, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// rows without the key column are rejected
	assert.Error(t, st.Append(ctx, CollectionClients, Row{"Name": "anonymous"}))
}

func TestMemStoreUpdateTouchesEveryCopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore()

	// ids are not unique; the store accepts duplicates by design
	require.NoError(t, st.Append(ctx, CollectionSessions, Row{"Session ID": "s1", "Status": "scheduled"}))
	require.NoError(t, st.Append(ctx, CollectionSessions, Row{"Session ID": "s1", "Status": "scheduled"}))

	require.NoError(t, st.UpdateByID(ctx, CollectionSessions, "s1", Row{"Status": "canceled"}))

	rows, err := st.ListAll(ctx, CollectionSessions)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "canceled", r["Status"])
	}

	assert.ErrorIs(t, st.UpdateByID(ctx, CollectionSessions, "missing", Row{"Status": "canceled"}), ErrNotFound)
}

func TestMemStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore()

	require.NoError(t, st.Append(ctx, CollectionClients, Row{"Client ID": "c1", "Name": "Aiko"}))

	got, err := st.FindByID(ctx, CollectionClients, "c1")
	require.NoError(t, err)
	got["Name"] = "mutated"

	again, err := st.FindByID(ctx, CollectionClients, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Aiko", again["Name"])
}

func TestNewRecordID(t *testing.T) {
	a := NewRecordID()
	b := NewRecordID()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("20060102150405")+1+8)
}
