// Package storage selects the chat store backend named in configuration.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/config"
	"github.com/edgard/hisword/internal/database"
	"github.com/edgard/hisword/internal/docstore"
)

// Open returns the configured chats.Store. The caller must Close it.
func Open(cfg config.StorageConfig, logger *slog.Logger) (chats.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return database.Open(cfg.SQLitePath, logger)
	case config.BackendBolt:
		return docstore.Open(cfg.BoltPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
