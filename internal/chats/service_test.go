package chats_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/chats/chatstest"
	"github.com/edgard/hisword/internal/verse"
)

type fakeFetcher struct {
	mu    sync.Mutex
	resp  *verse.Response
	err   error
	calls []string
}

func (f *fakeFetcher) FetchVerseResponse(ctx context.Context, question, userID string) (*verse.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+"|"+question)
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.resp
	return &resp, nil
}

func TestService_AskPersistsOnSuccess(t *testing.T) {
	store := chatstest.NewMemoryStore()
	svc := chats.NewService(&fakeFetcher{resp: &chatstest.Response}, store, nil)
	ctx := context.Background()

	rec, err := svc.Ask(ctx, "tg:7", "I am weary")
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, chatstest.Response, rec.Response)

	items, total, err := svc.History(ctx, "tg:7", false, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, rec.ID, items[0].ID)
}

func TestService_AskFailureStoresNothing(t *testing.T) {
	store := chatstest.NewMemoryStore()
	verseErr := &verse.Error{Kind: verse.KindTimeout, Attempts: 3}
	svc := chats.NewService(&fakeFetcher{err: verseErr}, store, nil)
	ctx := context.Background()

	rec, err := svc.Ask(ctx, "tg:7", "I am weary")
	assert.Nil(t, rec)
	assert.True(t, errors.Is(err, verse.ErrTimeout))

	listing, err := store.List(ctx, "tg:7")
	require.NoError(t, err)
	assert.Zero(t, listing.Total())
}

func TestService_AskSaveFailureStillAnswers(t *testing.T) {
	store := chatstest.NewMemoryStore()
	store.FailCreate = errors.New("disk full")
	svc := chats.NewService(&fakeFetcher{resp: &chatstest.Response}, store, nil)

	rec, err := svc.Ask(context.Background(), "tg:7", "I am weary")
	require.Error(t, err)
	assert.True(t, errors.Is(err, chats.ErrNotSaved))
	require.NotNil(t, rec)
	assert.Empty(t, rec.ID)
	assert.Equal(t, chatstest.Response, rec.Response)
}

func TestService_AskAnonymousIsNotStored(t *testing.T) {
	store := chatstest.NewMemoryStore()
	fetcher := &fakeFetcher{resp: &chatstest.Response}
	svc := chats.NewService(fetcher, store, nil)

	for _, user := range []string{"", verse.AnonymousUserID} {
		rec, err := svc.Ask(context.Background(), user, "hello")
		require.NoError(t, err)
		assert.Empty(t, rec.ID)
		assert.Equal(t, verse.AnonymousUserID, rec.UserID)
	}

	listing, err := store.List(context.Background(), verse.AnonymousUserID)
	require.NoError(t, err)
	assert.Zero(t, listing.Total())
	assert.Len(t, fetcher.calls, 2)
}

func TestService_HistoryFiltersAndCounts(t *testing.T) {
	store := chatstest.NewMemoryStore()
	svc := chats.NewService(&fakeFetcher{resp: &chatstest.Response}, store, nil)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, q := range []string{"Anxiety about exams", "Forgiving my brother", "anxious nights", "Grief"} {
		require.NoError(t, store.Create(ctx, chatstest.NewRecord("tg:1", q, base.Add(time.Duration(i)*time.Hour))))
	}
	listing, err := store.List(ctx, "tg:1")
	require.NoError(t, err)
	grief := listing.Active[0]
	_, err = svc.ToggleArchive(ctx, "tg:1", grief.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		archived  bool
		query     string
		want      []string
		wantTotal int
	}{
		{"all active", false, "", []string{"anxious nights", "Forgiving my brother", "Anxiety about exams"}, 3},
		{"active search", false, "ANX", []string{"anxious nights", "Anxiety about exams"}, 3},
		{"no match", false, "joy", []string{}, 3},
		{"archived", true, "", []string{"Grief"}, 1},
		{"archived search", true, "exam", []string{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := svc.History(ctx, "tg:1", tt.archived, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			got := make([]string, 0, len(items))
			for _, r := range items {
				got = append(got, r.Question)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_ToggleArchiveAndDelete(t *testing.T) {
	store := chatstest.NewMemoryStore()
	svc := chats.NewService(&fakeFetcher{resp: &chatstest.Response}, store, nil)
	ctx := context.Background()

	rec, err := svc.Ask(ctx, "tg:1", "q")
	require.NoError(t, err)

	toggled, err := svc.ToggleArchive(ctx, "tg:1", rec.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsArchived)

	toggled, err = svc.ToggleArchive(ctx, "tg:1", rec.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsArchived)

	_, err = svc.ToggleArchive(ctx, "tg:2", rec.ID)
	assert.ErrorIs(t, err, chats.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "tg:1", rec.ID))
	_, err = svc.Get(ctx, "tg:1", rec.ID)
	assert.ErrorIs(t, err, chats.ErrNotFound)

	require.NoError(t, svc.Maintain(ctx))
	assert.Equal(t, 1, store.Maintained)
}

func TestService_Find(t *testing.T) {
	store := chatstest.NewMemoryStore()
	svc := chats.NewService(&fakeFetcher{resp: &chatstest.Response}, store, nil)
	ctx := context.Background()

	ids := []string{
		"1f0c6a52-1111-4a4a-9b9b-000000000001",
		"1f0c6a52-2222-4a4a-9b9b-000000000002",
		"7e9d0b13-3333-4a4a-9b9b-000000000003",
	}
	for _, id := range ids {
		rec := chatstest.NewRecord("tg:1", "q "+id, time.Now())
		rec.ID = id
		require.NoError(t, store.Create(ctx, rec))
	}
	require.NoError(t, store.SetArchived(ctx, "tg:1", ids[2], true))

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{"full id", ids[0], ids[0], nil},
		{"unique prefix", "7e9d0b13", ids[2], nil},
		{"upper case prefix", " 7E9D ", ids[2], nil},
		{"longer prefix", "1f0c6a52-2", ids[1], nil},
		{"ambiguous prefix", "1f0c6a52", "", chats.ErrAmbiguous},
		{"no match", "ffff", "", chats.ErrNotFound},
		{"empty", "  ", "", chats.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := svc.Find(ctx, "tg:1", tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.ID)
		})
	}

	_, err := svc.Find(ctx, "tg:2", "7e9d0b13")
	assert.ErrorIs(t, err, chats.ErrNotFound)
}

func TestService_AskNormalizesQuestion(t *testing.T) {
	store := chatstest.NewMemoryStore()
	fetcher := &fakeFetcher{resp: &chatstest.Response}
	svc := chats.NewService(fetcher, store, nil)

	rec, err := svc.Ask(context.Background(), "tg:7", "  where\u200B is   hope?\r\n\r\n\r\n\r\nnow ")
	require.NoError(t, err)
	assert.Equal(t, "where is hope?\n\nnow", rec.Question)
	assert.Equal(t, []string{"tg:7|where is hope?\n\nnow"}, fetcher.calls)

	stored, err := store.Get(context.Background(), "tg:7", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Question, stored.Question)
}
