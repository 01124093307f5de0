// Package handlers contains the Telegram command, message and callback
// handlers of the bot together with their registration table.
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/hisword/internal/verse"
)

// Sender is the part of the Telegram API the handlers use. *bot.Bot
// implements it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
}

var _ Sender = (*bot.Bot)(nil)

// identity maps a Telegram account to the user id its history is stored under.
func identity(u *models.User) string {
	if u == nil || u.ID == 0 {
		return verse.AnonymousUserID
	}
	return fmt.Sprintf("tg:%d", u.ID)
}

// commandArgs returns the text after the command word, so "/history@bot faith"
// yields "faith".
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if idx := strings.IndexAny(text, " \n\t"); idx != -1 {
		return strings.TrimSpace(text[idx+1:])
	}
	return ""
}

// reply sends text to chatID, logging failures.
func (d HandlerDeps) reply(ctx context.Context, s Sender, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   clampMessage(text),
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := s.SendMessage(ctx, params); err != nil {
		d.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
