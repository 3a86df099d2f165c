package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/questroom/progress-service/internal/domain"
	"github.com/questroom/progress-service/internal/security"
)

type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	GetByCode(ctx context.Context, code string) (*domain.Room, error)
	List(ctx context.Context) ([]domain.RoomSummary, error)
	EnsureDemoRoom(ctx context.Context) (*domain.Room, error)
	IsProtected(ctx context.Context, id string) (bool, error)
}

type MembershipManager interface {
	Join(ctx context.Context, m *domain.Membership) error
	Leave(ctx context.Context, roomID string, userID int64) error
	CurrentRoom(ctx context.Context, userID int64) (*domain.Membership, error)
	IsMember(ctx context.Context, roomID string, userID int64) (bool, error)
	MembersDetailed(ctx context.Context, roomID string) ([]domain.RoomMember, error)
}

// RoomDeleter is the admin teardown path of the lifecycle controller.
type RoomDeleter interface {
	DeleteRoom(ctx context.Context, roomID string) error
}

const maxCodeAttempts = 10

type RoomService struct {
	rooms   RoomStore
	members MembershipManager
	deleter RoomDeleter
}

func NewRoomService(rooms RoomStore, members MembershipManager, deleter RoomDeleter) *RoomService {
	return &RoomService{rooms: rooms, members: members, deleter: deleter}
}

// EnsureDemoRoom runs the protected-room bootstrap. Must complete before any
// request is served; safe under concurrently starting processes.
func (s *RoomService) EnsureDemoRoom(ctx context.Context) (*domain.Room, error) {
	room, err := s.rooms.EnsureDemoRoom(ctx)
	if err != nil {
		return nil, fmt.Errorf("rooms.EnsureDemoRoom: %w", err)
	}
	slog.Info("demo room ready", "room_id", room.ID, "code", room.Code)
	return room, nil
}

// CreateRoom creates a room under a fresh random code, retrying on the rare
// code collision.
func (s *RoomService) CreateRoom(ctx context.Context, name string, createdBy int64) (*domain.Room, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := security.GenerateRoomCode()
		if err != nil {
			return nil, err
		}

		room := &domain.Room{
			Code:      code,
			Name:      name,
			CreatedBy: createdBy,
		}
		err = s.rooms.Create(ctx, room)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, domain.ErrRoomCodeTaken) {
			return nil, fmt.Errorf("rooms.Create: %w", err)
		}
	}
	return nil, domain.ErrRoomCodeTaken
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.rooms.Get(ctx, id)
}

func (s *RoomService) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	return s.rooms.List(ctx)
}

// JoinByCode adds the user to the room behind the code. A user already in
// some room gets ErrAlreadyJoined; the membership table's single-membership
// constraint backs this under races.
func (s *RoomService) JoinByCode(ctx context.Context, code string, userID int64) (*domain.Room, error) {
	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	m := &domain.Membership{RoomID: room.ID, UserID: userID}
	if err := s.members.Join(ctx, m); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) LeaveRoom(ctx context.Context, roomID string, userID int64) error {
	return s.members.Leave(ctx, roomID, userID)
}

func (s *RoomService) Members(ctx context.Context, roomID string) ([]domain.RoomMember, error) {
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}
	return s.members.MembersDetailed(ctx, roomID)
}

func (s *RoomService) IsMember(ctx context.Context, roomID string, userID int64) (bool, error) {
	return s.members.IsMember(ctx, roomID, userID)
}

// DeleteRoom tears the room down through the lifecycle controller; the
// protected room is refused.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	return s.deleter.DeleteRoom(ctx, roomID)
}
