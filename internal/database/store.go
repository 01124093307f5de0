package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/hisword/internal/chats"
)

// sqlxStore implements chats.Store on a SQLite database using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a chats.Store backed by a connected sqlx.DB whose schema is
// already migrated. Closing the store closes db.
func NewStore(db *sqlx.DB, logger *slog.Logger) chats.Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
		now:    time.Now,
	}
}

// Open connects to the SQLite file at path, migrates it and returns a store.
func Open(path string, logger *slog.Logger) (chats.Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	db, err := NewDB(path, logger)
	if err != nil {
		return nil, err
	}
	return NewStore(db, logger), nil
}

func (s *sqlxStore) Create(ctx context.Context, rec *chats.Record) error {
	if err := chats.Prepare(rec, s.now()); err != nil {
		return err
	}

	query := `
        INSERT INTO chats (id, user_id, question, verse, reference, relevance, explanation, created_at, is_archived)
        VALUES (:id, :user_id, :question, :verse, :reference, :relevance, :explanation, :created_at, :is_archived);
    `
	if _, err := s.db.NamedExecContext(ctx, query, rowFromRecord(rec)); err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat", "user_id", rec.UserID, "chat_id", rec.ID, "error", err)
		return fmt.Errorf("failed to save chat for user %s: %w", rec.UserID, err)
	}

	s.logger.DebugContext(ctx, "Chat saved", "user_id", rec.UserID, "chat_id", rec.ID)
	return nil
}

func (s *sqlxStore) Get(ctx context.Context, userID, id string) (*chats.Record, error) {
	var row chatRow
	query := `SELECT * FROM chats WHERE id = ? AND user_id = ?;`
	if err := s.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chats.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Error fetching chat", "user_id", userID, "chat_id", id, "error", err)
		return nil, fmt.Errorf("failed to get chat %s: %w", id, err)
	}
	rec := row.record()
	return &rec, nil
}

func (s *sqlxStore) List(ctx context.Context, userID string) (*chats.Listing, error) {
	var rows []chatRow
	query := `SELECT * FROM chats WHERE user_id = ? ORDER BY created_at DESC, id;`
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing chats", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list chats for user %s: %w", userID, err)
	}

	records := make([]chats.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return chats.NewListing(records), nil
}

func (s *sqlxStore) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	query := `UPDATE chats SET is_archived = ? WHERE id = ? AND user_id = ?;`
	return s.execOne(ctx, "update", query, archived, id, userID)
}

func (s *sqlxStore) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM chats WHERE id = ? AND user_id = ?;`
	return s.execOne(ctx, "delete", query, id, userID)
}

// execOne runs a statement that must affect exactly one row.
func (s *sqlxStore) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error executing chat statement", "op", op, "error", err)
		return fmt.Errorf("failed to %s chat: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return chats.ErrNotFound
	}
	return nil
}

// Maintain executes VACUUM on the database.
func (s *sqlxStore) Maintain(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Error running VACUUM", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully", "duration", time.Since(start))
	return nil
}

func (s *sqlxStore) Close() error {
	return CloseDB(s.db, s.logger)
}
