package handlers

import (
	"sort"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler describes one handler and how it is matched.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	// Description is published to the Telegram command menu when set.
	Description string
}

// RegisterAllCommands returns every handler keyed by command, plus the
// inline button handler under "callback".
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(name, description string, h tgbot.HandlerFunc) {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Description: description,
		}
	}

	command("start", "Start and see example questions", NewStartHandler(deps))
	command("help", "List the commands", NewHelpHandler(deps))
	command("ask", "Get a Bible verse for your question", NewAskHandler(deps))
	command("history", "Your conversations, optionally filtered", NewHistoryHandler(deps))
	command("archived", "Archived conversations, optionally filtered", NewArchivedHandler(deps))
	command("show", "Show a conversation by id", NewShowHandler(deps))
	command("archive", "Archive or unarchive a conversation", NewArchiveHandler(deps))
	command("delete", "Delete a conversation", NewDeleteHandler(deps))

	handlers["callback"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "",
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	return handlers
}

// BotCommands lists the commands to publish in the Telegram menu, sorted by
// name.
func BotCommands(registered map[string]RegisteredHandler) []models.BotCommand {
	var cmds []models.BotCommand
	for _, h := range registered {
		if h.Description == "" || h.HandlerType != tgbot.HandlerTypeMessageText {
			continue
		}
		cmds = append(cmds, models.BotCommand{Command: h.Pattern, Description: h.Description})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Command < cmds[j].Command })
	return cmds
}
