package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/hisword/internal/chats"
)

const (
	// Telegram rejects messages longer than this many characters.
	maxMessageLen   = 4096
	maxListed       = 20
	questionPreview = 60

	callbackArchive = "archive:"
	callbackDelete  = "delete:"
	callbackExample = "example:"
)

// formatRecord renders a saved or unsaved answer.
func formatRecord(rec *chats.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your Question:\n%s\n\n", rec.Question)
	fmt.Fprintf(&sb, "Bible Verse:\n\"%s\"\n- %s\n\n", rec.Response.Verse, rec.Response.Reference)
	fmt.Fprintf(&sb, "Relevance:\n%s\n\n", rec.Response.Relevance)
	fmt.Fprintf(&sb, "Application:\n%s", rec.Response.Explanation)
	if rec.ID != "" {
		status := ""
		if rec.IsArchived {
			status = " (archived)"
		}
		fmt.Fprintf(&sb, "\n\nID: %s%s", chats.ShortID(rec.ID), status)
	}
	return sb.String()
}

// formatListing renders one page of history. total is the size of the list
// before filtering.
func formatListing(title string, items []chats.Record, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (Showing %d of %d)\n", title, len(items), total)
	for i, rec := range items {
		if i == maxListed {
			fmt.Fprintf(&sb, "\n...and %d more. Narrow it down with a search.", len(items)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "\n%d. [%s] %s %s", i+1, chats.ShortID(rec.ID),
			rec.CreatedAt.Format("2006-01-02"), truncate(oneLine(rec.Question), questionPreview))
	}
	sb.WriteString("\n\nUse /show <id> to open a conversation.")
	return sb.String()
}

// recordKeyboard offers archive and delete buttons for a saved record.
func recordKeyboard(rec *chats.Record) *models.InlineKeyboardMarkup {
	archiveLabel := "Archive"
	if rec.IsArchived {
		archiveLabel = "Unarchive"
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: archiveLabel, CallbackData: callbackArchive + rec.ID},
			{Text: "Delete", CallbackData: callbackDelete + rec.ID},
		}},
	}
}

// examplesKeyboard offers one button per example question.
func examplesKeyboard(examples []string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(examples))
	for i, ex := range examples {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: truncate(ex, questionPreview), CallbackData: fmt.Sprintf("%s%d", callbackExample, i)},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func clampMessage(s string) string {
	return truncate(s, maxMessageLen)
}
