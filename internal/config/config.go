// Package config provides configuration loading, validation, and management
// for the His Word bot and CLI. It reads a YAML file through viper, applies
// defaults, honours HISWORD_* environment overrides, and validates the result.
package config

import "time"

// Config holds the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Verse     VerseConfig     `mapstructure:"verse"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// VerseConfig configures the verse generation service client.
type VerseConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1ms,max=10m"`
	MaxRetries int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	BaseDelay  time.Duration `mapstructure:"base_delay"  validate:"min=0,max=1m"`
}

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// StorageConfig selects and configures the chat history backend.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"     validate:"oneof=sqlite bolt"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	BoltPath   string `mapstructure:"bolt_path"   validate:"required_if=Backend bolt"`
}

// TelegramConfig holds Telegram bot settings. The token is only required by
// the bot process, so it is checked there rather than here.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// BotInfo is filled at runtime from getMe.
	BotInfo BotInfo `mapstructure:"-"`
}

// BotInfo describes the running bot account.
type BotInfo struct {
	ID        int64
	Username  string
	FirstName string
}

// MessagesConfig holds every user-facing text of the bot.
type MessagesConfig struct {
	Welcome      string   `mapstructure:"welcome"       validate:"required"`
	Help         string   `mapstructure:"help"          validate:"required"`
	Examples     []string `mapstructure:"examples"`
	AskPrompt    string   `mapstructure:"ask_prompt"    validate:"required"`
	UnknownCmd   string   `mapstructure:"unknown_cmd"   validate:"required"`
	GeneralError string   `mapstructure:"general_error" validate:"required"`
	TimeoutError string   `mapstructure:"timeout_error" validate:"required"`
	NotSaved     string   `mapstructure:"not_saved"     validate:"required"`
	NoHistory    string   `mapstructure:"no_history"    validate:"required"`
	NoArchived   string   `mapstructure:"no_archived"   validate:"required"`
	NoMatches    string   `mapstructure:"no_matches"    validate:"required"`
	NotFound     string   `mapstructure:"not_found"     validate:"required"`
	ProvideID    string   `mapstructure:"provide_id"    validate:"required"`
	Ambiguous    string   `mapstructure:"ambiguous"     validate:"required"`
	Archived     string   `mapstructure:"archived"      validate:"required"`
	Unarchived   string   `mapstructure:"unarchived"    validate:"required"`
	Deleted      string   `mapstructure:"deleted"       validate:"required"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Schedule is a six-field cron
// expression (seconds first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}
