package postgres

import (
	"context"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MembershipRepository struct {
	db *pgxpool.Pool
}

func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Join adds the user to a room. The room row is locked first so joins do not
// interleave with an in-flight progress evaluation or lifecycle transition on
// the same room. PRIMARY KEY (user_id) rejects a second concurrent membership.
func (r *MembershipRepository) Join(ctx context.Context, m *domain.Membership) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var roomID string
	if err := tx.QueryRow(ctx,
		`SELECT id FROM rooms WHERE id=$1 FOR UPDATE`, m.RoomID).Scan(&roomID); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrRoomNotFound
		}
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO room_members (room_id, user_id)
		VALUES ($1, $2)
		RETURNING joined_at`, m.RoomID, m.UserID).Scan(&m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyJoined
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *MembershipRepository) Leave(ctx context.Context, roomID string, userID int64) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM room_members WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}
	return nil
}

// CurrentRoom returns the user's single active membership.
func (r *MembershipRepository) CurrentRoom(ctx context.Context, userID int64) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.QueryRow(ctx,
		`SELECT room_id, user_id, joined_at FROM room_members WHERE user_id=$1`, userID).
		Scan(&m.RoomID, &m.UserID, &m.JoinedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotInRoom
		}
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) IsMember(ctx context.Context, roomID string, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id=$1 AND user_id=$2)`,
		roomID, userID).Scan(&exists)
	return exists, err
}

func (r *MembershipRepository) Members(ctx context.Context, roomID string) ([]domain.Membership, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_id, user_id, joined_at FROM room_members WHERE room_id=$1 ORDER BY joined_at ASC`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// MembersDetailed joins user profiles onto the membership set.
func (r *MembershipRepository) MembersDetailed(ctx context.Context, roomID string) ([]domain.RoomMember, error) {
	const q = `
SELECT m.user_id,
       u.username,
       u.role,
       m.joined_at
FROM room_members AS m
JOIN users AS u ON u.id = m.user_id
WHERE m.room_id = $1
ORDER BY m.joined_at;
`
	rows, err := r.db.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RoomMember, 0, 16)
	for rows.Next() {
		var row domain.RoomMember
		if err := rows.Scan(&row.UserID, &row.Username, &row.Role, &row.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
