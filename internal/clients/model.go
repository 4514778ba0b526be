package clients

import (
	"fmt"
	"time"

	"github.com/hibiki-studio/booking-console/internal/store"
)

type Status string

// Funnel statuses. They advance monotonically via staff action or booking
// side effects; clients are never hard-deleted, only suspended.
const (
	StatusTrialBefore    Status = "trial-before"
	StatusTrialScheduled Status = "trial-scheduled"
	StatusTrialCompleted Status = "trial-completed"
	StatusOngoing        Status = "ongoing"
	StatusCompleted      Status = "completed"
	StatusSuspended      Status = "suspended"
)

type Format string

const (
	FormatOnline   Format = "online"
	FormatInPerson Format = "in-person"
	FormatEither   Format = "either"
)

type Client struct {
	ID              string
	Name            string
	PhoneticName    string
	Email           string // case-insensitive identity key
	Phone           string
	Address         string
	Gender          string
	Birthdate       string
	PreferredFormat Format
	Status          Status
	Notes           string
	CreatedAt       time.Time
}

// Storage labels. The record store keeps rows under business-language column
// names; this mapping layer is the only place that knows them.
const (
	labelID              = "Client ID"
	labelName            = "Name"
	labelPhoneticName    = "Phonetic Name"
	labelEmail           = "Email"
	labelPhone           = "Phone"
	labelAddress         = "Address"
	labelGender          = "Gender"
	labelBirthdate       = "Birthdate"
	labelPreferredFormat = "Preferred Format"
	labelStatus          = "Status"
	labelNotes           = "Notes"
	labelCreatedAt       = "Created At"
)

const timestampLayout = "2006-01-02 15:04:05"

func (c Client) ToRow(loc *time.Location) store.Row {
	return store.Row{
		labelID:              c.ID,
		labelName:            c.Name,
		labelPhoneticName:    c.PhoneticName,
		labelEmail:           c.Email,
		labelPhone:           c.Phone,
		labelAddress:         c.Address,
		labelGender:          c.Gender,
		labelBirthdate:       c.Birthdate,
		labelPreferredFormat: string(c.PreferredFormat),
		labelStatus:          string(c.Status),
		labelNotes:           c.Notes,
		labelCreatedAt:       c.CreatedAt.In(loc).Format(timestampLayout),
	}
}

func FromRow(r store.Row, loc *time.Location) (Client, error) {
	createdAt, err := r.Time(labelCreatedAt, timestampLayout, loc)
	if err != nil {
		return Client{}, fmt.Errorf("client row: %w", err)
	}

	return Client{
		ID:              r[labelID],
		Name:            r[labelName],
		PhoneticName:    r[labelPhoneticName],
		Email:           r[labelEmail],
		Phone:           r[labelPhone],
		Address:         r[labelAddress],
		Gender:          r[labelGender],
		Birthdate:       r[labelBirthdate],
		PreferredFormat: Format(r[labelPreferredFormat]),
		Status:          Status(r[labelStatus]),
		Notes:           r[labelNotes],
		CreatedAt:       createdAt,
	}, nil
}

// StatusRow builds the partial row for a status change.
func StatusRow(status Status) store.Row {
	return store.Row{labelStatus: string(status)}
}
