package chats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/hisword/internal/text"
	"github.com/edgard/hisword/internal/verse"
)

// Fetcher obtains a validated verse answer. *verse.Client implements it.
type Fetcher interface {
	FetchVerseResponse(ctx context.Context, question, userID string) (*verse.Response, error)
}

// Service answers questions and manages the resulting history.
type Service struct {
	fetcher Fetcher
	store   Store
	now     func() time.Time
	log     *slog.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(fetcher Fetcher, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		now:     time.Now,
		log:     logger.With("component", "chat_service"),
	}
}

// Ask fetches an answer for question and records it in userID's history.
//
// Verse failures are returned as-is and nothing is stored. When the answer
// was obtained but could not be stored, the unsaved record (with an empty ID)
// is returned together with an error wrapping ErrNotSaved. Anonymous users
// get their answer without a stored record. The question is normalized with
// text.NormalizeQuestion first.
func (s *Service) Ask(ctx context.Context, userID, question string) (*Record, error) {
	question = text.NormalizeQuestion(question)
	resp, err := s.fetcher.FetchVerseResponse(ctx, question, userID)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		UserID:    userID,
		Question:  question,
		Response:  *resp,
		CreatedAt: s.now().UTC(),
	}
	if userID == "" || userID == verse.AnonymousUserID {
		rec.UserID = verse.AnonymousUserID
		return rec, nil
	}

	if err := s.store.Create(ctx, rec); err != nil {
		s.log.ErrorContext(ctx, "Failed to save chat", "user_id", userID, "error", err)
		rec.ID = ""
		return rec, fmt.Errorf("%w: %w", ErrNotSaved, err)
	}

	s.log.DebugContext(ctx, "Chat saved", "user_id", userID, "chat_id", rec.ID)
	return rec, nil
}

// History returns the active or archived records whose question matches
// query, together with the size of that list before filtering.
func (s *Service) History(ctx context.Context, userID string, archived bool, query string) ([]Record, int, error) {
	listing, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load history: %w", err)
	}
	records := listing.Active
	if archived {
		records = listing.Archived
	}
	return Filter(records, query), len(records), nil
}

// Get returns one of the user's records.
func (s *Service) Get(ctx context.Context, userID, id string) (*Record, error) {
	return s.store.Get(ctx, userID, id)
}

// Find resolves ref, a full id or a unique id prefix, to one of the user's
// records.
func (s *Service) Find(ctx context.Context, userID, ref string) (*Record, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, ErrNotFound
	}
	rec, err := s.store.Get(ctx, userID, ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return rec, err
	}

	listing, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	var match *Record
	for _, list := range [][]Record{listing.Active, listing.Archived} {
		for i := range list {
			if !strings.HasPrefix(list[i].ID, ref) {
				continue
			}
			if match != nil {
				return nil, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
			}
			match = &list[i]
		}
	}
	if match == nil {
		return nil, ErrNotFound
	}
	return match, nil
}

// ToggleArchive flips the archive flag of a record and returns it updated.
func (s *Service) ToggleArchive(ctx context.Context, userID, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	archived := !rec.IsArchived
	if err := s.store.SetArchived(ctx, userID, id, archived); err != nil {
		return nil, fmt.Errorf("failed to update chat %s: %w", id, err)
	}
	rec.IsArchived = archived
	s.log.InfoContext(ctx, "Chat archive state changed", "user_id", userID, "chat_id", id, "archived", archived)
	return rec, nil
}

// Delete removes one of the user's records.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Chat deleted", "user_id", userID, "chat_id", id)
	return nil
}

// Maintain runs store housekeeping.
func (s *Service) Maintain(ctx context.Context) error {
	return s.store.Maintain(ctx)
}
