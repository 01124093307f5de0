// Package chatstest provides an in-memory chats.Store and a behaviour suite
// every chats.Store implementation must pass.
package chatstest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/edgard/hisword/internal/chats"
)

// MemoryStore is a goroutine-safe chats.Store kept in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]chats.Record

	// FailCreate, when set, is returned by Create.
	FailCreate error
	Maintained int
	Closed     bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]chats.Record)}
}

func (m *MemoryStore) Create(ctx context.Context, rec *chats.Record) error {
	if m.FailCreate != nil {
		return m.FailCreate
	}
	if err := chats.Prepare(rec, time.Now()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return errors.New("duplicate chat id")
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, userID, id string) (*chats.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.UserID != userID {
		return nil, chats.ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryStore) List(ctx context.Context, userID string) (*chats.Listing, error) {
	m.mu.Lock()
	var records []chats.Record
	for _, rec := range m.records {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	m.mu.Unlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return chats.NewListing(records), nil
}

func (m *MemoryStore) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.UserID != userID {
		return chats.ErrNotFound
	}
	rec.IsArchived = archived
	m.records[id] = rec
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.UserID != userID {
		return chats.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) Maintain(ctx context.Context) error {
	m.mu.Lock()
	m.Maintained++
	m.mu.Unlock()
	return ctx.Err()
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

var _ chats.Store = (*MemoryStore)(nil)
