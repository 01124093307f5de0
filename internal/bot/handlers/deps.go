package handlers

import (
	"log/slog"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/config"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Service *chats.Service
}
