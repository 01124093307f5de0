package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler greets the user and offers the example questions.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h startHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil {
		log.WarnContext(ctx, "Start handler received update with nil message", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", update.Message.Chat.ID, "user_id", identity(update.Message.From))

	msgs := h.deps.Config.Messages
	var sb strings.Builder
	sb.WriteString(h.withBotName(msgs.Welcome))
	for i, ex := range msgs.Examples {
		fmt.Fprintf(&sb, "\n\n%d. %s", i+1, ex)
	}

	var markup models.ReplyMarkup
	if len(msgs.Examples) > 0 {
		markup = examplesKeyboard(msgs.Examples)
	}
	h.deps.reply(ctx, s, update.Message.Chat.ID, sb.String(), markup)
}

func (h startHandler) withBotName(text string) string {
	if name := h.deps.Config.Telegram.BotInfo.Username; name != "" {
		return strings.ReplaceAll(text, "@botname", "@"+name)
	}
	return text
}
