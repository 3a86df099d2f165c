package domain

import "time"

// GlossaryEntry is a room-owned term/definition pair. Entries die with the
// room on teardown but survive a demo-room progress reset.
type GlossaryEntry struct {
	ID         int64     `db:"id"`
	RoomID     string    `db:"room_id"`
	Term       string    `db:"term"`
	Definition string    `db:"definition"`
	AuthorID   int64     `db:"author_id"`
	AuthorName string    `db:"author_name"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type GlossaryStats struct {
	EntryCount       int `db:"entry_count"`
	ContributorCount int `db:"contributor_count"`
}
