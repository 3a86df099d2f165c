package postgres

import (
	"context"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LifecycleRepository runs the full-completion transition for a room as one
// all-or-nothing transaction. A partially reset or partially deleted room is
// never an observable state.
type LifecycleRepository struct {
	db *pgxpool.Pool
}

func NewLifecycleRepository(db *pgxpool.Pool) *LifecycleRepository {
	return &LifecycleRepository{db: db}
}

// CheckFullCompletion fires the lifecycle transition when all totalModules
// aggregate rows are present. The claim is the DELETE of those rows: only the
// transaction that consumes exactly totalModules rows proceeds, so two racing
// final completions cannot both transition. The loser finds the rows gone and
// reports TransitionNone.
func (r *LifecycleRepository) CheckFullCompletion(ctx context.Context, roomID string, totalModules int) (domain.Transition, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.TransitionNone, err
	}
	defer tx.Rollback(ctx)

	var protected bool
	if err := tx.QueryRow(ctx,
		`SELECT is_protected FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&protected); err != nil {
		if err == pgx.ErrNoRows {
			// room already torn down by the racing winner
			return domain.TransitionNone, nil
		}
		return domain.TransitionNone, err
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_module_completions WHERE room_id=$1`, roomID).Scan(&count); err != nil {
		return domain.TransitionNone, err
	}
	if count < totalModules {
		return domain.TransitionNone, tx.Commit(ctx)
	}

	cmd, err := tx.Exec(ctx,
		`DELETE FROM room_module_completions WHERE room_id=$1`, roomID)
	if err != nil {
		return domain.TransitionNone, err
	}
	if int(cmd.RowsAffected()) != totalModules {
		// claim lost; roll back whatever the delete touched
		return domain.TransitionNone, nil
	}

	if protected {
		// reset: clear individual progress, keep members and glossary
		if _, err := tx.Exec(ctx, `
			DELETE FROM module_completions
			WHERE user_id IN (SELECT user_id FROM room_members WHERE room_id=$1)`, roomID); err != nil {
			return domain.TransitionNone, err
		}
		if err := tx.Commit(ctx); err != nil {
			return domain.TransitionNone, err
		}
		return domain.TransitionReset, nil
	}

	if err := teardownLocked(ctx, tx, roomID); err != nil {
		return domain.TransitionNone, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.TransitionNone, err
	}
	return domain.TransitionTeardown, nil
}

// DeleteRoom is the admin teardown path. The protected room is never deleted.
func (r *LifecycleRepository) DeleteRoom(ctx context.Context, roomID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var protected bool
	if err := tx.QueryRow(ctx,
		`SELECT is_protected FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&protected); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrRoomNotFound
		}
		return err
	}
	if protected {
		return domain.ErrRoomProtected
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM room_module_completions WHERE room_id=$1`, roomID); err != nil {
		return err
	}
	if err := teardownLocked(ctx, tx, roomID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// teardownLocked cascades the room-owned state. Caller holds the room row
// lock and has already consumed the aggregate rows.
func teardownLocked(ctx context.Context, tx pgx.Tx, roomID string) error {
	if _, err := tx.Exec(ctx, `
		DELETE FROM module_completions
		WHERE user_id IN (SELECT user_id FROM room_members WHERE room_id=$1)`, roomID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM glossary_entries WHERE room_id=$1`, roomID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM room_members WHERE room_id=$1`, roomID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, roomID); err != nil {
		return err
	}
	return nil
}
