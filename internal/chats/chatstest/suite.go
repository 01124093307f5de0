package chatstest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/verse"
)

// Response is a complete verse answer for building test records.
var Response = verse.Response{
	Verse:       "Come to me, all you who are weary and burdened, and I will give you rest.",
	Reference:   "Matthew 11:28",
	Relevance:   "You described feeling worn out.",
	Explanation: "Rest is offered, not earned. Take one unhurried hour this week.",
}

// NewRecord builds a valid, unsaved record created at the given time.
func NewRecord(userID, question string, createdAt time.Time) *chats.Record {
	return &chats.Record{
		UserID:    userID,
		Question:  question,
		Response:  Response,
		CreatedAt: createdAt,
	}
}

// RunStoreTests exercises the chats.Store contract against stores built by
// newStore. Each subtest gets a fresh store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) chats.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	t.Run("create assigns id and round trips", func(t *testing.T) {
		s := newStore(t)
		rec := NewRecord("tg:1", "Why do I feel so tired?", time.Time{})
		rec.IsArchived = true

		require.NoError(t, s.Create(ctx, rec))
		_, err := uuid.Parse(rec.ID)
		require.NoError(t, err)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.False(t, rec.IsArchived)

		got, err := s.Get(ctx, "tg:1", rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.UserID, got.UserID)
		assert.Equal(t, rec.Question, got.Question)
		assert.Equal(t, Response, got.Response)
		assert.False(t, got.IsArchived)
		assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("create rejects partial records", func(t *testing.T) {
		s := newStore(t)
		partial := NewRecord("tg:1", "q", base)
		partial.Response.Relevance = ""
		assert.ErrorIs(t, s.Create(ctx, partial), chats.ErrInvalidRecord)

		noUser := NewRecord("", "q", base)
		assert.ErrorIs(t, s.Create(ctx, noUser), chats.ErrInvalidRecord)

		listing, err := s.List(ctx, "tg:1")
		require.NoError(t, err)
		assert.Zero(t, listing.Total())
	})

	t.Run("list is newest first and split by archive state", func(t *testing.T) {
		s := newStore(t)
		var ids []string
		for i, q := range []string{"first", "second", "third", "fourth"} {
			rec := NewRecord("tg:1", q, base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, s.Create(ctx, rec))
			ids = append(ids, rec.ID)
		}
		require.NoError(t, s.SetArchived(ctx, "tg:1", ids[1], true))

		listing, err := s.List(ctx, "tg:1")
		require.NoError(t, err)
		assert.Equal(t, []string{"fourth", "third", "first"}, questions(listing.Active))
		assert.Equal(t, []string{"second"}, questions(listing.Archived))

		require.NoError(t, s.SetArchived(ctx, "tg:1", ids[1], false))
		listing, err = s.List(ctx, "tg:1")
		require.NoError(t, err)
		assert.Len(t, listing.Active, 4)
		assert.Empty(t, listing.Archived)
	})

	t.Run("records are scoped by user", func(t *testing.T) {
		s := newStore(t)
		mine := NewRecord("tg:1", "mine", base)
		theirs := NewRecord("tg:2", "theirs", base)
		require.NoError(t, s.Create(ctx, mine))
		require.NoError(t, s.Create(ctx, theirs))

		_, err := s.Get(ctx, "tg:1", theirs.ID)
		assert.ErrorIs(t, err, chats.ErrNotFound)
		assert.ErrorIs(t, s.SetArchived(ctx, "tg:1", theirs.ID, true), chats.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "tg:1", theirs.ID), chats.ErrNotFound)

		listing, err := s.List(ctx, "tg:1")
		require.NoError(t, err)
		assert.Equal(t, []string{"mine"}, questions(listing.Active))

		got, err := s.Get(ctx, "tg:2", theirs.ID)
		require.NoError(t, err)
		assert.False(t, got.IsArchived)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		s := newStore(t)
		rec := NewRecord("tg:1", "q", base)
		require.NoError(t, s.Create(ctx, rec))

		require.NoError(t, s.Delete(ctx, "tg:1", rec.ID))
		_, err := s.Get(ctx, "tg:1", rec.ID)
		assert.ErrorIs(t, err, chats.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "tg:1", rec.ID), chats.ErrNotFound)
	})

	t.Run("missing ids are not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "tg:1", uuid.NewString())
		assert.ErrorIs(t, err, chats.ErrNotFound)
		assert.ErrorIs(t, s.SetArchived(ctx, "tg:1", uuid.NewString(), true), chats.ErrNotFound)

		listing, err := s.List(ctx, "tg:nobody")
		require.NoError(t, err)
		assert.NotNil(t, listing.Active)
		assert.NotNil(t, listing.Archived)
	})

	t.Run("maintain succeeds", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewRecord("tg:1", "q", base)))
		assert.NoError(t, s.Maintain(ctx))
	})
}

func questions(records []chats.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Question)
	}
	return out
}
