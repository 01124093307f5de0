package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type manageAction int

const (
	actionShow manageAction = iota
	actionArchive
	actionDelete
)

func (a manageAction) String() string {
	switch a {
	case actionArchive:
		return "archive"
	case actionDelete:
		return "delete"
	default:
		return "show"
	}
}

// NewShowHandler returns a handler for /show <id>.
func NewShowHandler(deps HandlerDeps) bot.HandlerFunc {
	return manageHandler{deps: deps, action: actionShow}.Handle
}

// NewArchiveHandler returns a handler for /archive <id>, which toggles the
// archive state.
func NewArchiveHandler(deps HandlerDeps) bot.HandlerFunc {
	return manageHandler{deps: deps, action: actionArchive}.Handle
}

// NewDeleteHandler returns a handler for /delete <id>.
func NewDeleteHandler(deps HandlerDeps) bot.HandlerFunc {
	return manageHandler{deps: deps, action: actionDelete}.Handle
}

// manageHandler acts on one conversation named by id or id prefix.
type manageHandler struct {
	deps   HandlerDeps
	action manageAction
}

func (h manageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h manageHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", h.action.String())

	if update.Message == nil {
		log.WarnContext(ctx, "Handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	userID := identity(update.Message.From)
	msgs := h.deps.Config.Messages

	ref := commandArgs(update.Message.Text)
	if ref == "" {
		h.deps.reply(ctx, s, chatID, msgs.ProvideID, nil)
		return
	}

	rec, err := h.deps.Service.Find(ctx, userID, ref)
	if err != nil {
		log.InfoContext(ctx, "Conversation lookup failed", "user_id", userID, "ref", ref, "error", err)
		h.deps.reply(ctx, s, chatID, h.deps.errorText(err), nil)
		return
	}

	switch h.action {
	case actionShow:
		h.deps.reply(ctx, s, chatID, formatRecord(rec), recordKeyboard(rec))

	case actionArchive:
		updated, err := h.deps.Service.ToggleArchive(ctx, userID, rec.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to toggle archive", "user_id", userID, "chat_id", rec.ID, "error", err)
			h.deps.reply(ctx, s, chatID, h.deps.errorText(err), nil)
			return
		}
		text := msgs.Unarchived
		if updated.IsArchived {
			text = msgs.Archived
		}
		h.deps.reply(ctx, s, chatID, text, nil)

	case actionDelete:
		if err := h.deps.Service.Delete(ctx, userID, rec.ID); err != nil {
			log.ErrorContext(ctx, "Failed to delete conversation", "user_id", userID, "chat_id", rec.ID, "error", err)
			h.deps.reply(ctx, s, chatID, h.deps.errorText(err), nil)
			return
		}
		h.deps.reply(ctx, s, chatID, msgs.Deleted, nil)
	}
}
