package database

import (
	"time"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/verse"
)

// chatRow is the flat shape of a chats table row.
type chatRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Question    string    `db:"question"`
	Verse       string    `db:"verse"`
	Reference   string    `db:"reference"`
	Relevance   string    `db:"relevance"`
	Explanation string    `db:"explanation"`
	CreatedAt   time.Time `db:"created_at"`
	IsArchived  bool      `db:"is_archived"`
}

func rowFromRecord(r *chats.Record) chatRow {
	return chatRow{
		ID:          r.ID,
		UserID:      r.UserID,
		Question:    r.Question,
		Verse:       r.Response.Verse,
		Reference:   r.Response.Reference,
		Relevance:   r.Response.Relevance,
		Explanation: r.Response.Explanation,
		CreatedAt:   r.CreatedAt.UTC(),
		IsArchived:  r.IsArchived,
	}
}

func (row chatRow) record() chats.Record {
	return chats.Record{
		ID:       row.ID,
		UserID:   row.UserID,
		Question: row.Question,
		Response: verse.Response{
			Verse:       row.Verse,
			Reference:   row.Reference,
			Relevance:   row.Relevance,
			Explanation: row.Explanation,
		},
		CreatedAt:  row.CreatedAt.UTC(),
		IsArchived: row.IsArchived,
	}
}
