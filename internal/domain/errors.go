package domain

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomProtected = errors.New("room is protected")
	ErrRoomCodeTaken = errors.New("room code already taken")
	ErrAlreadyJoined = errors.New("user already joined a room")
	ErrNotInRoom     = errors.New("user not in a room")

	ErrInvalidModule = errors.New("module number out of range")

	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("username or email already taken")
	ErrForbidden     = errors.New("operation not allowed")
	ErrQuizNotFound  = errors.New("quiz not found")
	ErrEntryNotFound = errors.New("glossary entry not found")
)
