package domain

import "time"

// Membership ties a user to their current room. The store enforces at most
// one membership per user.
type Membership struct {
	RoomID   string    `db:"room_id"`
	UserID   int64     `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}

// RoomMember is a membership joined with the member's profile.
type RoomMember struct {
	UserID   int64
	Username string
	Role     Role
	JoinedAt time.Time
}
