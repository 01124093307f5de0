package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/verse"
)

// NewAskHandler returns a handler for the /ask command.
func NewAskHandler(deps HandlerDeps) bot.HandlerFunc {
	return askHandler{deps}.Handle
}

// NewDefaultHandler returns the handler for updates no other handler matched:
// plain text is treated as a question, unknown commands get a hint.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps}.Handle
}

// askHandler answers the question given after /ask.
type askHandler struct {
	deps HandlerDeps
}

func (h askHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h askHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	if update.Message == nil {
		h.deps.Logger.WarnContext(ctx, "Ask handler received update with nil message", "update_id", update.ID)
		return
	}
	h.deps.answer(ctx, s, update.Message.Chat.ID, update.Message.From, commandArgs(update.Message.Text))
}

type defaultHandler struct {
	deps HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h defaultHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "default")

	msg := update.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring update without text", "update_id", update.ID)
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		log.InfoContext(ctx, "Unknown command", "chat_id", msg.Chat.ID, "text", msg.Text)
		h.deps.reply(ctx, s, msg.Chat.ID, h.deps.Config.Messages.UnknownCmd, nil)
		return
	}

	h.deps.answer(ctx, s, msg.Chat.ID, msg.From, msg.Text)
}

// answer runs a question through the service and replies with the verse.
func (d HandlerDeps) answer(ctx context.Context, s Sender, chatID int64, from *models.User, question string) {
	log := d.Logger.With("handler", "ask")
	msgs := d.Config.Messages
	userID := identity(from)

	question = strings.TrimSpace(question)
	if question == "" {
		d.reply(ctx, s, chatID, msgs.AskPrompt, nil)
		return
	}

	log.InfoContext(ctx, "Handling question", "chat_id", chatID, "user_id", userID)

	stopTyping := d.keepTyping(ctx, s, chatID)
	rec, err := d.Service.Ask(ctx, userID, question)
	stopTyping()

	switch {
	case err == nil:
		var markup models.ReplyMarkup
		if rec.ID != "" {
			markup = recordKeyboard(rec)
		}
		d.reply(ctx, s, chatID, formatRecord(rec), markup)

	case errors.Is(err, verse.ErrInvalidInput):
		log.DebugContext(ctx, "Question empty after normalization", "user_id", userID)
		d.reply(ctx, s, chatID, msgs.AskPrompt, nil)

	case errors.Is(err, chats.ErrNotSaved) && rec != nil:
		log.WarnContext(ctx, "Answer delivered without saving", "user_id", userID, "error", err)
		d.reply(ctx, s, chatID, formatRecord(rec)+"\n\n"+msgs.NotSaved, nil)

	default:
		log.ErrorContext(ctx, "Failed to answer question", "user_id", userID, "error", err)
		d.reply(ctx, s, chatID, d.errorText(err), nil)
	}
}

// errorText maps an error to the configured user-facing message.
func (d HandlerDeps) errorText(err error) string {
	msgs := d.Config.Messages
	switch {
	case errors.Is(err, chats.ErrNotFound):
		return msgs.NotFound
	case errors.Is(err, chats.ErrAmbiguous):
		return msgs.Ambiguous
	case errors.Is(err, verse.ErrInvalidInput):
		return msgs.AskPrompt
	case errors.Is(err, verse.ErrTimeout):
		return msgs.TimeoutError
	default:
		return msgs.GeneralError
	}
}
