package domain

import "time"

// DefaultTotalModules is the length of the fixed module sequence a room
// works through.
const DefaultTotalModules = 6

// ModuleCompletion records that one user finished one module. Immutable once
// written; unique per (user, module).
type ModuleCompletion struct {
	UserID       int64     `db:"user_id"`
	ModuleNumber int       `db:"module_number"`
	CompletedAt  time.Time `db:"completed_at"`
}

// RoomModuleCompletion is the aggregate fact that every current member of a
// room had finished the module at evaluation time. Unique per (room, module).
type RoomModuleCompletion struct {
	RoomID       string    `db:"room_id"`
	ModuleNumber int       `db:"module_number"`
	CompletedAt  time.Time `db:"completed_at"`
}

// ValidModule reports whether n is within the 1..total sequence.
func ValidModule(n, total int) bool {
	return n >= 1 && n <= total
}

// MemberProgress is one row of a room's completion matrix.
type MemberProgress struct {
	UserID           int64
	Username         string
	CompletedModules []int
}
