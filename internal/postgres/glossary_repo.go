package postgres

import (
	"context"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GlossaryRepository struct {
	db *pgxpool.Pool
}

func NewGlossaryRepository(db *pgxpool.Pool) *GlossaryRepository {
	return &GlossaryRepository{db: db}
}

func (r *GlossaryRepository) Create(ctx context.Context, e *domain.GlossaryEntry) error {
	query := `
		INSERT INTO glossary_entries (room_id, term, definition, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, e.RoomID, e.Term, e.Definition, e.AuthorID).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *GlossaryRepository) Get(ctx context.Context, id int64) (*domain.GlossaryEntry, error) {
	var e domain.GlossaryEntry
	query := `
		SELECT g.id, g.room_id, g.term, g.definition, g.author_id, u.username,
		       g.created_at, g.updated_at
		FROM glossary_entries g
		JOIN users u ON u.id = g.author_id
		WHERE g.id=$1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.RoomID, &e.Term, &e.Definition, &e.AuthorID, &e.AuthorName,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListByRoom returns a room's glossary ordered by term, optionally filtered
// by a case-insensitive substring match over term and definition.
func (r *GlossaryRepository) ListByRoom(ctx context.Context, roomID, search string) ([]domain.GlossaryEntry, error) {
	query := `
		SELECT g.id, g.room_id, g.term, g.definition, g.author_id, u.username,
		       g.created_at, g.updated_at
		FROM glossary_entries g
		JOIN users u ON u.id = g.author_id
		WHERE g.room_id = $1
		  AND ($2 = '' OR g.term ILIKE '%' || $2 || '%' OR g.definition ILIKE '%' || $2 || '%')
		ORDER BY g.term ASC`

	rows, err := r.db.Query(ctx, query, roomID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.GlossaryEntry
	for rows.Next() {
		var e domain.GlossaryEntry
		if err := rows.Scan(
			&e.ID, &e.RoomID, &e.Term, &e.Definition, &e.AuthorID, &e.AuthorName,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *GlossaryRepository) Update(ctx context.Context, id int64, term, definition string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE glossary_entries
		SET term=$2, definition=$3, updated_at=now()
		WHERE id=$1`, id, term, definition)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *GlossaryRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM glossary_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *GlossaryRepository) Stats(ctx context.Context, roomID string) (*domain.GlossaryStats, error) {
	var s domain.GlossaryStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT author_id)
		FROM glossary_entries WHERE room_id=$1`, roomID).
		Scan(&s.EntryCount, &s.ContributorCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
