// Package docstore provides the document-store chat backend on BoltDB. Each
// record is a JSON document keyed by id inside a bucket per user, all nested
// under one root bucket.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/edgard/hisword/internal/chats"
)

var rootBucket = []byte("chats")

type boltStore struct {
	db     *bolt.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the Bolt file at path.
func Open(path string, logger *slog.Logger) (chats.Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create root bucket: %w", err)
	}

	logger.Info("Bolt document store opened", "path", path)
	return &boltStore{
		db:     db,
		logger: logger.With("component", "bolt_store"),
		now:    time.Now,
	}, nil
}

// userBucket returns the user's bucket, or nil if the user has no records.
func userBucket(tx *bolt.Tx, userID string) *bolt.Bucket {
	root := tx.Bucket(rootBucket)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(userID))
}

func (s *boltStore) Create(ctx context.Context, rec *chats.Record) error {
	if err := chats.Prepare(rec, s.now()); err != nil {
		return err
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(rootBucket).CreateBucketIfNotExists([]byte(rec.UserID))
		if err != nil {
			return err
		}
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("chat %s already exists", rec.ID)
		}
		return b.Put([]byte(rec.ID), doc)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat", "user_id", rec.UserID, "chat_id", rec.ID, "error", err)
		return fmt.Errorf("failed to save chat for user %s: %w", rec.UserID, err)
	}

	s.logger.DebugContext(ctx, "Chat saved", "user_id", rec.UserID, "chat_id", rec.ID)
	return nil
}

func (s *boltStore) Get(ctx context.Context, userID, id string) (*chats.Record, error) {
	var rec chats.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := userBucket(tx, userID)
		if b == nil {
			return chats.ErrNotFound
		}
		doc := b.Get([]byte(id))
		if doc == nil {
			return chats.ErrNotFound
		}
		return json.Unmarshal(doc, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *boltStore) List(ctx context.Context, userID string) (*chats.Listing, error) {
	var records []chats.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := userBucket(tx, userID)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec chats.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				// Skip malformed documents instead of failing the whole listing
				s.logger.WarnContext(ctx, "Skipping unreadable chat document", "chat_id", string(k), "error", err)
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %s: %w", userID, err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return chats.NewListing(records), nil
}

func (s *boltStore) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := userBucket(tx, userID)
		if b == nil {
			return chats.ErrNotFound
		}
		doc := b.Get([]byte(id))
		if doc == nil {
			return chats.ErrNotFound
		}
		var rec chats.Record
		if err := json.NewDecoder(bytes.NewReader(doc)).Decode(&rec); err != nil {
			return fmt.Errorf("failed to decode chat %s: %w", id, err)
		}
		rec.IsArchived = archived
		updated, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode chat %s: %w", id, err)
		}
		return b.Put([]byte(id), updated)
	})
}

func (s *boltStore) Delete(ctx context.Context, userID, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := userBucket(tx, userID)
		if b == nil || b.Get([]byte(id)) == nil {
			return chats.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

// Maintain flushes the file to disk and logs page statistics.
func (s *boltStore) Maintain(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	start := time.Now()
	if err := s.db.Sync(); err != nil {
		s.logger.ErrorContext(ctx, "Error syncing bolt database", "error", err)
		return fmt.Errorf("failed to sync bolt database: %w", err)
	}

	var users, docs int
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).ForEachBucket(func(k []byte) error {
			users++
			docs += tx.Bucket(rootBucket).Bucket(k).Stats().KeyN
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to collect bolt statistics: %w", err)
	}

	stats := s.db.Stats()
	s.logger.InfoContext(ctx, "Bolt maintenance completed",
		"users", users,
		"documents", docs,
		"free_pages", stats.FreePageN,
		"pending_pages", stats.PendingPageN,
		"duration", time.Since(start))
	return nil
}

func (s *boltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	s.logger.Info("Bolt document store closed")
	return nil
}
