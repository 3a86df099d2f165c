package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/questroom/progress-service/internal/domain"
)

// MembershipStore is the read side of the membership registry the engine
// consults. Join/leave live on the room side.
type MembershipStore interface {
	CurrentRoom(ctx context.Context, userID int64) (*domain.Membership, error)
	Members(ctx context.Context, roomID string) ([]domain.Membership, error)
}

// ProgressLedger is the sole source of truth for individual completions.
type ProgressLedger interface {
	RecordCompletion(ctx context.Context, userID int64, module int) (created bool, err error)
	UserCompletions(ctx context.Context, userID int64) ([]int, error)
	MemberProgress(ctx context.Context, roomID string) ([]domain.MemberProgress, error)
}

// AggregateStore records room-wide module completion exactly once per
// (room, module) lifecycle.
type AggregateStore interface {
	Evaluate(ctx context.Context, roomID string, module int) (triggered bool, err error)
	IsModuleComplete(ctx context.Context, roomID string, module int) (bool, error)
	CompletedModules(ctx context.Context, roomID string) ([]domain.RoomModuleCompletion, error)
}

// LifecycleStore runs the atomic full-completion transition.
type LifecycleStore interface {
	CheckFullCompletion(ctx context.Context, roomID string, totalModules int) (domain.Transition, error)
}

// Notifier receives lifecycle events for fan-out to connected clients.
// Implementations must not block.
type Notifier interface {
	MemberCompleted(roomID string, userID int64, module int)
	RoomModuleCompleted(roomID string, module int)
	RoomReset(roomID string)
	RoomClosed(roomID string)
}

type noopNotifier struct{}

func (noopNotifier) MemberCompleted(string, int64, int) {}
func (noopNotifier) RoomModuleCompleted(string, int)    {}
func (noopNotifier) RoomReset(string)                   {}
func (noopNotifier) RoomClosed(string)                  {}

type CompletionResult struct {
	ModuleNumber     int
	AlreadyCompleted bool
	ModuleComplete   bool // room-wide for this module
	RoomComplete     bool // all modules, lifecycle transition fired
	IsDemo           bool // transition was a reset
	CompletedModules []int
}

type RoomProgress struct {
	TotalModules     int
	CompletedModules []int
	Members          []domain.MemberProgress
}

type ProgressService struct {
	members      MembershipStore
	ledger       ProgressLedger
	aggregates   AggregateStore
	lifecycle    LifecycleStore
	notifier     Notifier
	totalModules int
}

func NewProgressService(
	members MembershipStore,
	ledger ProgressLedger,
	aggregates AggregateStore,
	lifecycle LifecycleStore,
	notifier Notifier,
	totalModules int,
) *ProgressService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if totalModules <= 0 {
		totalModules = domain.DefaultTotalModules
	}
	return &ProgressService{
		members:      members,
		ledger:       ledger,
		aggregates:   aggregates,
		lifecycle:    lifecycle,
		notifier:     notifier,
		totalModules: totalModules,
	}
}

func (s *ProgressService) TotalModules() int { return s.totalModules }

// CompleteModule records an individual completion and drives the room's
// aggregate and lifecycle state. Duplicate submissions are a no-op reported
// through AlreadyCompleted; they never re-trigger evaluation.
func (s *ProgressService) CompleteModule(ctx context.Context, userID int64, module int) (*CompletionResult, error) {
	if !domain.ValidModule(module, s.totalModules) {
		return nil, domain.ErrInvalidModule
	}

	membership, err := s.members.CurrentRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	roomID := membership.RoomID

	created, err := s.ledger.RecordCompletion(ctx, userID, module)
	if err != nil {
		return nil, fmt.Errorf("ledger.RecordCompletion: %w", err)
	}

	result := &CompletionResult{
		ModuleNumber:     module,
		AlreadyCompleted: !created,
	}

	if !created {
		// replay: report the authoritative aggregate state, touch nothing
		complete, err := s.aggregates.IsModuleComplete(ctx, roomID, module)
		if err != nil {
			return nil, err
		}
		result.ModuleComplete = complete
		return s.withUserModules(ctx, userID, result)
	}

	s.notifier.MemberCompleted(roomID, userID, module)

	triggered, err := s.aggregates.Evaluate(ctx, roomID, module)
	if err != nil {
		return nil, fmt.Errorf("aggregates.Evaluate: %w", err)
	}
	if !triggered {
		// either some member is still pending, or a racing evaluation won;
		// both read the same way from here
		complete, err := s.aggregates.IsModuleComplete(ctx, roomID, module)
		if err != nil {
			return nil, err
		}
		result.ModuleComplete = complete
		return s.withUserModules(ctx, userID, result)
	}

	result.ModuleComplete = true
	s.notifier.RoomModuleCompleted(roomID, module)

	transition, err := s.lifecycle.CheckFullCompletion(ctx, roomID, s.totalModules)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.CheckFullCompletion: %w", err)
	}

	switch transition {
	case domain.TransitionReset:
		result.RoomComplete = true
		result.IsDemo = true
		slog.Info("room reset after full completion", "room_id", roomID)
		s.notifier.RoomReset(roomID)
	case domain.TransitionTeardown:
		result.RoomComplete = true
		slog.Info("room torn down after full completion", "room_id", roomID)
		s.notifier.RoomClosed(roomID)
	}

	return s.withUserModules(ctx, userID, result)
}

func (s *ProgressService) withUserModules(ctx context.Context, userID int64, result *CompletionResult) (*CompletionResult, error) {
	modules, err := s.ledger.UserCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.CompletedModules = modules
	return result, nil
}

// ReevaluateRoom re-checks every module against current membership. Called
// after a member leaves: the threshold drops, so a module blocked on the
// departed member may now be complete.
func (s *ProgressService) ReevaluateRoom(ctx context.Context, roomID string) error {
	triggeredAny := false
	for module := 1; module <= s.totalModules; module++ {
		triggered, err := s.aggregates.Evaluate(ctx, roomID, module)
		if err != nil {
			if errors.Is(err, domain.ErrRoomNotFound) {
				return nil
			}
			return fmt.Errorf("aggregates.Evaluate: %w", err)
		}
		if triggered {
			triggeredAny = true
			s.notifier.RoomModuleCompleted(roomID, module)
		}
	}
	if !triggeredAny {
		return nil
	}

	transition, err := s.lifecycle.CheckFullCompletion(ctx, roomID, s.totalModules)
	if err != nil {
		return fmt.Errorf("lifecycle.CheckFullCompletion: %w", err)
	}
	switch transition {
	case domain.TransitionReset:
		slog.Info("room reset after member departure", "room_id", roomID)
		s.notifier.RoomReset(roomID)
	case domain.TransitionTeardown:
		slog.Info("room torn down after member departure", "room_id", roomID)
		s.notifier.RoomClosed(roomID)
	}
	return nil
}

// UserProgress returns the modules a user has completed.
func (s *ProgressService) UserProgress(ctx context.Context, userID int64) ([]int, error) {
	return s.ledger.UserCompletions(ctx, userID)
}

// RoomProgress returns the room's aggregate state plus the per-member matrix.
func (s *ProgressService) RoomProgress(ctx context.Context, roomID string) (*RoomProgress, error) {
	aggregates, err := s.aggregates.CompletedModules(ctx, roomID)
	if err != nil {
		return nil, err
	}
	members, err := s.ledger.MemberProgress(ctx, roomID)
	if err != nil {
		return nil, err
	}

	modules := make([]int, 0, len(aggregates))
	for _, a := range aggregates {
		modules = append(modules, a.ModuleNumber)
	}

	return &RoomProgress{
		TotalModules:     s.totalModules,
		CompletedModules: modules,
		Members:          members,
	}, nil
}
