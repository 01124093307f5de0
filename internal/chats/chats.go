// Package chats defines the chat history domain: the records kept for every
// answered question, the Store contract both storage backends implement, and
// the Service that ties the verse client to a store.
package chats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/hisword/internal/verse"
)

var (
	// ErrNotFound is returned when a record does not exist for the given user.
	ErrNotFound = errors.New("chat not found")
	// ErrInvalidRecord is returned when a record is missing required data.
	ErrInvalidRecord = errors.New("invalid chat record")
	// ErrNotSaved wraps a persistence failure that happened after a verse
	// answer was obtained.
	ErrNotSaved = errors.New("chat not saved")
	// ErrAmbiguous is returned when an id prefix matches more than one record.
	ErrAmbiguous = errors.New("chat id prefix is ambiguous")
)

// ShortIDLen is the length of the id prefix shown in listings.
const ShortIDLen = 8

// ShortID returns the displayed prefix of id.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// Record is one answered question in a user's history.
type Record struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Question   string         `json:"question"`
	Response   verse.Response `json:"response"`
	CreatedAt  time.Time      `json:"createdAt"`
	IsArchived bool           `json:"isArchived"`
}

// Validate checks that the record could have come from a successful verse call.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user id is empty", ErrInvalidRecord)
	}
	if r.UserID == verse.AnonymousUserID {
		return fmt.Errorf("%w: anonymous records are not stored", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("%w: question is empty", ErrInvalidRecord)
	}
	if err := r.Response.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// Prepare validates r and fills the fields a store assigns on creation.
// It is shared by the storage backends so both assign ids identically.
func Prepare(r *Record, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("%w: id %q is not a uuid", ErrInvalidRecord, r.ID)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.IsArchived = false
	return nil
}

// Listing is a user's history split by archive state, newest first.
type Listing struct {
	Active   []Record
	Archived []Record
}

// NewListing splits records that are already ordered newest first.
func NewListing(records []Record) *Listing {
	l := &Listing{Active: []Record{}, Archived: []Record{}}
	for _, r := range records {
		if r.IsArchived {
			l.Archived = append(l.Archived, r)
		} else {
			l.Active = append(l.Active, r)
		}
	}
	return l
}

// Total is the number of records in both lists.
func (l *Listing) Total() int {
	return len(l.Active) + len(l.Archived)
}

// Filter returns the records whose question contains query, ignoring case.
// An empty query returns records unchanged.
func Filter(records []Record, query string) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Question), query) {
			out = append(out, r)
		}
	}
	return out
}

// Store persists chat records. Every read and write is scoped by user id; a
// record owned by another user behaves as if it did not exist.
type Store interface {
	// Create stores a new record. It assigns ID and CreatedAt when unset and
	// always stores the record unarchived.
	Create(ctx context.Context, rec *Record) error

	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, userID, id string) (*Record, error)

	// List returns all of the user's records, newest first.
	List(ctx context.Context, userID string) (*Listing, error)

	// SetArchived updates the archive flag of one record.
	SetArchived(ctx context.Context, userID, id string, archived bool) error

	// Delete removes one record.
	Delete(ctx context.Context, userID, id string) error

	// Maintain runs backend housekeeping.
	Maintain(ctx context.Context) error

	Close() error
}
