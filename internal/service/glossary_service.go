package service

import (
	"context"
	"strings"

	"github.com/questroom/progress-service/internal/domain"
)

type GlossaryStore interface {
	Create(ctx context.Context, e *domain.GlossaryEntry) error
	Get(ctx context.Context, id int64) (*domain.GlossaryEntry, error)
	ListByRoom(ctx context.Context, roomID, search string) ([]domain.GlossaryEntry, error)
	Update(ctx context.Context, id int64, term, definition string) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, roomID string) (*domain.GlossaryStats, error)
}

type GlossaryList struct {
	Entries []domain.GlossaryEntry
	Stats   domain.GlossaryStats
	Search  string
}

// GlossaryService guards a room's glossary behind membership: only current
// members read or write entries.
type GlossaryService struct {
	entries GlossaryStore
	rooms   RoomStore
	members MembershipManager
}

func NewGlossaryService(entries GlossaryStore, rooms RoomStore, members MembershipManager) *GlossaryService {
	return &GlossaryService{entries: entries, rooms: rooms, members: members}
}

func (s *GlossaryService) requireMember(ctx context.Context, roomID string, userID int64) error {
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return err
	}
	ok, err := s.members.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func (s *GlossaryService) AddEntry(ctx context.Context, roomID string, userID int64, term, definition string) (*domain.GlossaryEntry, error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, err
	}

	e := &domain.GlossaryEntry{
		RoomID:     roomID,
		Term:       strings.TrimSpace(term),
		Definition: strings.TrimSpace(definition),
		AuthorID:   userID,
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *GlossaryService) List(ctx context.Context, roomID string, userID int64, search string) (*GlossaryList, error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByRoom(ctx, roomID, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	stats, err := s.entries.Stats(ctx, roomID)
	if err != nil {
		return nil, err
	}

	return &GlossaryList{Entries: entries, Stats: *stats, Search: search}, nil
}

// UpdateEntry lets the author or an admin edit an entry.
func (s *GlossaryService) UpdateEntry(ctx context.Context, entryID, userID int64, isAdmin bool, term, definition string) (*domain.GlossaryEntry, error) {
	e, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if e.AuthorID != userID && !isAdmin {
		return nil, domain.ErrForbidden
	}

	if term = strings.TrimSpace(term); term == "" {
		term = e.Term
	}
	if definition = strings.TrimSpace(definition); definition == "" {
		definition = e.Definition
	}
	if err := s.entries.Update(ctx, entryID, term, definition); err != nil {
		return nil, err
	}
	return s.entries.Get(ctx, entryID)
}

func (s *GlossaryService) DeleteEntry(ctx context.Context, entryID, userID int64, isAdmin bool) error {
	e, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if e.AuthorID != userID && !isAdmin {
		return domain.ErrForbidden
	}
	return s.entries.Delete(ctx, entryID)
}
