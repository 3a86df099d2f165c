package postgres

import (
	"context"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProgressRepository struct {
	db *pgxpool.Pool
}

func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// RecordCompletion writes the individual completion fact. Replays hit the
// (user_id, module_number) primary key and report created=false; callers use
// the flag to skip re-triggering aggregation.
func (r *ProgressRepository) RecordCompletion(ctx context.Context, userID int64, module int) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		INSERT INTO module_completions (user_id, module_number)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, module)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ProgressRepository) UserCompletions(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT module_number FROM module_completions
		WHERE user_id=$1 ORDER BY module_number`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		modules = append(modules, n)
	}
	return modules, rows.Err()
}

// MemberProgress returns the per-member completion matrix for a room.
func (r *ProgressRepository) MemberProgress(ctx context.Context, roomID string) ([]domain.MemberProgress, error) {
	const q = `
SELECT u.id,
       u.username,
       COALESCE(array_agg(c.module_number ORDER BY c.module_number)
                FILTER (WHERE c.module_number IS NOT NULL), '{}')
FROM room_members AS m
JOIN users AS u ON u.id = m.user_id
LEFT JOIN module_completions AS c ON c.user_id = u.id
WHERE m.room_id = $1
GROUP BY u.id, u.username
ORDER BY u.username;
`
	rows, err := r.db.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MemberProgress, 0, 16)
	for rows.Next() {
		var row domain.MemberProgress
		if err := rows.Scan(&row.UserID, &row.Username, &row.CompletedModules); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
