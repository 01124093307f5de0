package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/config"
	"github.com/edgard/hisword/internal/logger"
	"github.com/edgard/hisword/internal/storage"
	"github.com/edgard/hisword/internal/verse"
)

const defaultUser = "local"

// app holds the flags and the components opened for one command run.
type app struct {
	configPath string
	userID     string

	cfg     *config.Config
	log     *slog.Logger
	store   chats.Store
	service *chats.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hiswordctl",
		Short: "Ask for Bible verses and manage your conversation history",
		Long: `hiswordctl talks to the verse service and the chat store configured for the bot.

Conversations are stored under the identity given with --user, so running
with --user tg:<telegram id> shows that Telegram user's history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}

	user := os.Getenv("HISWORD_USER")
	if user == "" {
		user = defaultUser
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "./config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&a.userID, "user", user, "Identity whose history is used (env HISWORD_USER)")

	root.AddCommand(
		newAskCmd(a),
		newHistoryCmd(a),
		newShowCmd(a),
		newArchiveCmd(a),
		newDeleteCmd(a),
		newMaintainCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.JSON).With("component", "cli")

	if a.userID == "" || a.userID == verse.AnonymousUserID {
		return fmt.Errorf("--user must name a stored identity, not %q", a.userID)
	}

	store, err := storage.Open(cfg.Storage, a.log)
	if err != nil {
		return fmt.Errorf("failed to open chat store: %w", err)
	}
	client, err := verse.NewClient(cfg.Verse, nil, a.log)
	if err != nil {
		_ = store.Close()
		return err
	}

	a.store = store
	a.service = chats.NewService(client, store, a.log)
	return nil
}

// runE wraps a command body so the store is closed even when it fails.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil && cerr != nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// describe turns store and verse errors into short CLI messages.
func describe(err error) error {
	var verr *verse.Error
	switch {
	case errors.Is(err, chats.ErrNotFound):
		return errors.New("conversation not found")
	case errors.Is(err, chats.ErrAmbiguous):
		return errors.New("id prefix matches several conversations, use more characters")
	case errors.As(err, &verr) && verr.Attempts == 0:
		return fmt.Errorf("verse service: %s: %s", verr.Kind, verr.Detail)
	case errors.As(err, &verr):
		return fmt.Errorf("verse service: %s after %d attempt(s): %s", verr.Kind, verr.Attempts, verr.Detail)
	default:
		return err
	}
}
