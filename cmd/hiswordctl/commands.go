package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgard/hisword/internal/chats"
)

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question and save the answer to your history",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			rec, err := a.service.Ask(cmd.Context(), a.userID, strings.Join(args, " "))
			if rec == nil {
				return describe(err)
			}
			printRecord(cmd.OutOrStdout(), rec)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: answer not saved: %v\n", err)
			}
			return nil
		}),
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var archived bool
	var query string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			items, total, err := a.service.History(cmd.Context(), a.userID, archived, query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case total == 0 && archived:
				fmt.Fprintln(out, a.cfg.Messages.NoArchived)
			case total == 0:
				fmt.Fprintln(out, a.cfg.Messages.NoHistory)
			case len(items) == 0:
				fmt.Fprintf(out, a.cfg.Messages.NoMatches+"\n", query)
			default:
				fmt.Fprintf(out, "Showing %d of %d\n", len(items), total)
				for _, rec := range items {
					fmt.Fprintf(out, "%s  %s  %s\n", chats.ShortID(rec.ID), rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Question)
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "List archived conversations instead")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only show questions containing this text")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a conversation by id or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			rec, err := a.service.Find(cmd.Context(), a.userID, args[0])
			if err != nil {
				return describe(err)
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		}),
	}
}

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a conversation, or unarchive it if already archived",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			rec, err := a.service.Find(cmd.Context(), a.userID, args[0])
			if err != nil {
				return describe(err)
			}
			updated, err := a.service.ToggleArchive(cmd.Context(), a.userID, rec.ID)
			if err != nil {
				return describe(err)
			}
			if updated.IsArchived {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Messages.Archived)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Messages.Unarchived)
			}
			return nil
		}),
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			rec, err := a.service.Find(cmd.Context(), a.userID, args[0])
			if err != nil {
				return describe(err)
			}
			if err := a.service.Delete(cmd.Context(), a.userID, rec.ID); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Messages.Deleted)
			return nil
		}),
	}
}

func newMaintainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Run chat store housekeeping now",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.service.Maintain(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Maintenance completed")
			return nil
		}),
	}
}

func printRecord(w io.Writer, rec *chats.Record) {
	fmt.Fprintf(w, "Question:    %s\n", rec.Question)
	fmt.Fprintf(w, "Verse:       %s\n", rec.Response.Verse)
	fmt.Fprintf(w, "Reference:   %s\n", rec.Response.Reference)
	fmt.Fprintf(w, "Relevance:   %s\n", rec.Response.Relevance)
	fmt.Fprintf(w, "Application: %s\n", rec.Response.Explanation)
	if rec.ID != "" {
		state := "active"
		if rec.IsArchived {
			state = "archived"
		}
		fmt.Fprintf(w, "ID:          %s (%s, %s)\n", rec.ID, state, rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}
