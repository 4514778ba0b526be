// Package store is the boundary to the tabular record store the console uses
// as its database. Collections are named lists of flat rows keyed by
// business-language labels; every value travels as a string and callers
// coerce at the edge. The store offers no transactions, no uniqueness
// constraints and no compare-and-swap, so invariants live with the callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CollectionClients  = "clients"
	CollectionSessions = "sessions"
)

var ErrNotFound = errors.New("record not found")

// Row is one record in its native stringly-typed form.
type Row map[string]string

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge overlays partial onto r in place.
func (r Row) Merge(partial Row) {
	for k, v := range partial {
		r[k] = v
	}
}

// Int coerces a numeric-looking field. Absent or blank fields coerce to zero.
func (r Row) Int(label string) (int, error) {
	v := strings.TrimSpace(r[label])
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", label, err)
	}
	return n, nil
}

// Time parses a field with the given layout in the given location. Absent or
// blank fields coerce to the zero time.
func (r Row) Time(label, layout string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(r[label])
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(layout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", label, err)
	}
	return t, nil
}

// Store is the record store contract consumed by the domain packages.
type Store interface {
	ListAll(ctx context.Context, collection string) ([]Row, error)
	FindByID(ctx context.Context, collection, id string) (Row, error)
	Append(ctx context.Context, collection string, row Row) error
	UpdateByID(ctx context.Context, collection, id string, partial Row) error
}

// idLabels maps each collection to the business label that carries its key.
var idLabels = map[string]string{
	CollectionClients:  "Client ID",
	CollectionSessions: "Session ID",
}

// IDLabel returns the key column label for a collection.
func IDLabel(collection string) (string, error) {
	label, ok := idLabels[collection]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return label, nil
}

// NewRecordID mints an opaque time+random composite id, sortable by creation
// time at second granularity.
func NewRecordID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return time.Now().UTC().Format("20060102150405") + "-" + token
}
