package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHistoryHandler returns a handler for /history [search].
func NewHistoryHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps: deps}.Handle
}

// NewArchivedHandler returns a handler for /archived [search].
func NewArchivedHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps: deps, archived: true}.Handle
}

// historyHandler lists the user's active or archived conversations.
type historyHandler struct {
	deps     HandlerDeps
	archived bool
}

func (h historyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h historyHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "history", "archived", h.archived)

	if update.Message == nil {
		log.WarnContext(ctx, "History handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	userID := identity(update.Message.From)
	query := commandArgs(update.Message.Text)
	msgs := h.deps.Config.Messages

	items, total, err := h.deps.Service.History(ctx, userID, h.archived, query)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load history", "user_id", userID, "error", err)
		h.deps.reply(ctx, s, chatID, msgs.GeneralError, nil)
		return
	}
	log.DebugContext(ctx, "Loaded history", "user_id", userID, "shown", len(items), "total", total)

	switch {
	case total == 0 && h.archived:
		h.deps.reply(ctx, s, chatID, msgs.NoArchived, nil)
	case total == 0:
		h.deps.reply(ctx, s, chatID, msgs.NoHistory, nil)
	case len(items) == 0:
		h.deps.reply(ctx, s, chatID, fmt.Sprintf(msgs.NoMatches, query), nil)
	default:
		title := "Your conversations"
		if h.archived {
			title = "Archived conversations"
		}
		h.deps.reply(ctx, s, chatID, formatListing(title, items, total), nil)
	}
}
