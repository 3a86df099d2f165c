package domain

import "time"

// DemoRoomCode is the reserved code of the single protected room. The room
// is created at bootstrap and is reset instead of deleted when its cohort
// finishes all modules.
const (
	DemoRoomCode = "DEMO01"
	DemoRoomName = "Demo Room - Always Available"
)

type Room struct {
	ID          string    `db:"id"`
	Code        string    `db:"room_code"`
	Name        string    `db:"name"`
	IsProtected bool      `db:"is_protected"`
	CreatedBy   int64     `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// RoomSummary is a room plus its live member count, for listings.
type RoomSummary struct {
	Room        Room
	MemberCount int
}

// Transition is the outcome of a full-completion check on a room.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionReset
	TransitionTeardown
)

func (t Transition) String() string {
	switch t {
	case TransitionReset:
		return "reset"
	case TransitionTeardown:
		return "teardown"
	default:
		return "none"
	}
}
