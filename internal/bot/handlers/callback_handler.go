package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCallbackHandler returns the handler for inline keyboard buttons.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

// callbackHandler handles archive:<id>, delete:<id> and example:<n> buttons.
type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h callbackHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cq := update.CallbackQuery
	if cq == nil {
		log.WarnContext(ctx, "Callback handler received update without callback query", "update_id", update.ID)
		return
	}
	userID := identity(&cq.From)
	msgs := h.deps.Config.Messages

	chatID := cq.From.ID
	msg := cq.Message.Message
	if msg != nil {
		chatID = msg.Chat.ID
	}

	switch {
	case strings.HasPrefix(cq.Data, callbackExample):
		idx, err := strconv.Atoi(strings.TrimPrefix(cq.Data, callbackExample))
		if err != nil || idx < 0 || idx >= len(msgs.Examples) {
			h.answerCallback(ctx, s, cq.ID, msgs.GeneralError)
			return
		}
		h.answerCallback(ctx, s, cq.ID, "")
		h.deps.answer(ctx, s, chatID, &cq.From, msgs.Examples[idx])

	case strings.HasPrefix(cq.Data, callbackArchive):
		id := strings.TrimPrefix(cq.Data, callbackArchive)
		rec, err := h.deps.Service.ToggleArchive(ctx, userID, id)
		if err != nil {
			log.InfoContext(ctx, "Archive button failed", "user_id", userID, "chat_id", id, "error", err)
			h.answerCallback(ctx, s, cq.ID, h.deps.errorText(err))
			return
		}
		text := msgs.Unarchived
		if rec.IsArchived {
			text = msgs.Archived
		}
		h.answerCallback(ctx, s, cq.ID, text)
		if msg != nil {
			if _, err := s.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
				ChatID:      msg.Chat.ID,
				MessageID:   msg.ID,
				ReplyMarkup: recordKeyboard(rec),
			}); err != nil {
				log.WarnContext(ctx, "Failed to update buttons", "error", err, "chat_id", msg.Chat.ID)
			}
		}

	case strings.HasPrefix(cq.Data, callbackDelete):
		id := strings.TrimPrefix(cq.Data, callbackDelete)
		if err := h.deps.Service.Delete(ctx, userID, id); err != nil {
			log.InfoContext(ctx, "Delete button failed", "user_id", userID, "chat_id", id, "error", err)
			h.answerCallback(ctx, s, cq.ID, h.deps.errorText(err))
			return
		}
		h.answerCallback(ctx, s, cq.ID, msgs.Deleted)
		if msg != nil {
			if _, err := s.EditMessageText(ctx, &bot.EditMessageTextParams{
				ChatID:    msg.Chat.ID,
				MessageID: msg.ID,
				Text:      msgs.Deleted,
			}); err != nil {
				log.WarnContext(ctx, "Failed to replace deleted conversation", "error", err, "chat_id", msg.Chat.ID)
			}
		}

	default:
		log.WarnContext(ctx, "Unknown callback data", "data", cq.Data)
		h.answerCallback(ctx, s, cq.ID, "")
	}
}

func (h callbackHandler) answerCallback(ctx context.Context, s Sender, id, text string) {
	if _, err := s.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: id, Text: text}); err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", id)
	}
}
