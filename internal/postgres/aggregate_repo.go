package postgres

import (
	"context"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AggregateRepository decides room-wide module completion. Everything it
// reads and writes happens inside one transaction per call: membership and
// completion counts must come from the same snapshot, or a concurrent
// join/leave could produce a spurious or missed trigger.
type AggregateRepository struct {
	db *pgxpool.Pool
}

func NewAggregateRepository(db *pgxpool.Pool) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// Evaluate recomputes "every current member finished this module" from
// durable state and records the aggregate fact at most once. The room row is
// locked first, which serializes evaluations, joins and lifecycle transitions
// on the same room; the primary key on (room_id, module_number) backstops the
// insert so a racing winner is still unique.
func (r *AggregateRepository) Evaluate(ctx context.Context, roomID string, module int) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var id string
	if err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return false, domain.ErrRoomNotFound
		}
		return false, err
	}

	// both counts in one statement: under READ COMMITTED each statement sees
	// one snapshot, so a leave committing mid-evaluation cannot split them
	var members, completed int
	if err := tx.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM room_members WHERE room_id = $1),
			(SELECT COUNT(DISTINCT m.user_id)
			 FROM room_members m
			 JOIN module_completions c ON c.user_id = m.user_id AND c.module_number = $2
			 WHERE m.room_id = $1)`, roomID, module).Scan(&members, &completed); err != nil {
		return false, err
	}
	// an empty room cannot complete anything
	if members == 0 || completed != members {
		return false, tx.Commit(ctx)
	}

	cmd, err := tx.Exec(ctx, `
		INSERT INTO room_module_completions (room_id, module_number)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, roomID, module)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

func (r *AggregateRepository) CompletedModules(ctx context.Context, roomID string) ([]domain.RoomModuleCompletion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT room_id, module_number, completed_at
		FROM room_module_completions
		WHERE room_id=$1
		ORDER BY module_number`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.RoomModuleCompletion
	for rows.Next() {
		var c domain.RoomModuleCompletion
		if err := rows.Scan(&c.RoomID, &c.ModuleNumber, &c.CompletedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *AggregateRepository) IsModuleComplete(ctx context.Context, roomID string, module int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM room_module_completions
		WHERE room_id=$1 AND module_number=$2)`, roomID, module).Scan(&exists)
	return exists, err
}
