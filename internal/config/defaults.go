package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultVerseBaseURL    = "http://localhost:8001"
	DefaultVerseTimeout    = 30 * time.Second
	DefaultVerseMaxRetries = 2
	DefaultVerseBaseDelay  = time.Second

	DefaultStorageBackend = BackendSQLite
	DefaultSQLitePath     = "hisword.db"
	DefaultBoltPath       = "hisword.bolt"

	DefaultMaintenanceSchedule = "0 0 3 * * *" // daily at 03:00
)

// DefaultExamples are the example questions offered on /start.
var DefaultExamples = []string{
	"I'm praying for healing for my mother who is battling cancer. Can you share a comforting verse and some guidance?",
	"I'm trying to decide whether to accept a new job offer or stay in my current position.",
	"I want to understand more about forgiveness and how to practice it",
	"I want to memorize Psalm 50:21-31. Can you help me with explanations and reflections on this verse?",
}

// DefaultMessages holds the default bot texts.
var DefaultMessages = MessagesConfig{
	Welcome: "Where shall we begin as we tap into God's eternal wisdom?\n\n" +
		"Send me any question, or try one of these:",
	Help: "Send a question as a message, or use:\n" +
		"/ask <question> - get a verse for your question\n" +
		"/history [search] - your conversations\n" +
		"/archived [search] - archived conversations\n" +
		"/show <id> - show a conversation\n" +
		"/archive <id> - archive or unarchive a conversation\n" +
		"/delete <id> - delete a conversation",
	Examples:     DefaultExamples,
	AskPrompt:    "Please type your question after /ask, or just send it as a message.",
	UnknownCmd:   "I don't know that command. Send /help to see what I can do.",
	GeneralError: "Failed to get response. Please try again.",
	TimeoutError: "The request took too long. Please try again in a moment.",
	NotSaved:     "(This answer could not be saved to your history.)",
	NoHistory:    "No conversations yet",
	NoArchived:   "No archived conversations",
	NoMatches:    "No matches found for %q",
	NotFound:     "Conversation not found.",
	ProvideID:    "Please provide a conversation id, for example /show <id>.",
	Ambiguous:    "That id matches several conversations. Please use more characters.",
	Archived:     "Chat archived successfully",
	Unarchived:   "Chat unarchived successfully",
	Deleted:      "Chat deleted successfully",
}

// setDefaults registers defaults on v so that environment overrides work for
// every known key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("verse.base_url", DefaultVerseBaseURL)
	v.SetDefault("verse.timeout", DefaultVerseTimeout)
	v.SetDefault("verse.max_retries", DefaultVerseMaxRetries)
	v.SetDefault("verse.base_delay", DefaultVerseBaseDelay)

	v.SetDefault("storage.backend", DefaultStorageBackend)
	v.SetDefault("storage.sqlite_path", DefaultSQLitePath)
	v.SetDefault("storage.bolt_path", DefaultBoltPath)

	v.SetDefault("telegram.token", "")

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.examples", DefaultMessages.Examples)
	v.SetDefault("messages.ask_prompt", DefaultMessages.AskPrompt)
	v.SetDefault("messages.unknown_cmd", DefaultMessages.UnknownCmd)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.timeout_error", DefaultMessages.TimeoutError)
	v.SetDefault("messages.not_saved", DefaultMessages.NotSaved)
	v.SetDefault("messages.no_history", DefaultMessages.NoHistory)
	v.SetDefault("messages.no_archived", DefaultMessages.NoArchived)
	v.SetDefault("messages.no_matches", DefaultMessages.NoMatches)
	v.SetDefault("messages.not_found", DefaultMessages.NotFound)
	v.SetDefault("messages.provide_id", DefaultMessages.ProvideID)
	v.SetDefault("messages.ambiguous", DefaultMessages.Ambiguous)
	v.SetDefault("messages.archived", DefaultMessages.Archived)
	v.SetDefault("messages.unarchived", DefaultMessages.Unarchived)
	v.SetDefault("messages.deleted", DefaultMessages.Deleted)

	v.SetDefault("scheduler.tasks", map[string]any{
		"store_maintenance": map[string]any{
			"enabled":  true,
			"schedule": DefaultMaintenanceSchedule,
		},
	})
}
