package postgres

import (
	"context"
	"errors"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a room under a fresh UUID. A room_code collision surfaces
// as ErrRoomCodeTaken so the caller can retry with another code.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	room.ID = uuid.NewString()
	query := `
		INSERT INTO rooms (id, room_code, name, is_protected, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		room.ID, room.Code, room.Name, room.IsProtected, room.CreatedBy).
		Scan(&room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRoomCodeTaken
		}
		return err
	}
	return nil
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	var rm domain.Room
	query := `SELECT id, room_code, name, is_protected, COALESCE(created_by, 0), created_at
		FROM rooms WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&rm.ID, &rm.Code, &rm.Name, &rm.IsProtected, &rm.CreatedBy, &rm.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	var rm domain.Room
	query := `SELECT id, room_code, name, is_protected, COALESCE(created_by, 0), created_at
		FROM rooms WHERE room_code=$1`
	err := r.db.QueryRow(ctx, query, code).
		Scan(&rm.ID, &rm.Code, &rm.Name, &rm.IsProtected, &rm.CreatedBy, &rm.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.RoomSummary, error) {
	query := `
		SELECT r.id, r.room_code, r.name, r.is_protected, COALESCE(r.created_by, 0), r.created_at,
		       (SELECT COUNT(*) FROM room_members m WHERE m.room_id = r.id)
		FROM rooms r
		ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomSummary
	for rows.Next() {
		var row domain.RoomSummary
		if err := rows.Scan(
			&row.Room.ID, &row.Room.Code, &row.Room.Name, &row.Room.IsProtected,
			&row.Room.CreatedBy, &row.Room.CreatedAt, &row.MemberCount,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// EnsureDemoRoom is the race-safe bootstrap upsert for the protected room.
// The DO UPDATE branch also repairs a manually cleared is_protected flag.
func (r *RoomRepository) EnsureDemoRoom(ctx context.Context) (*domain.Room, error) {
	query := `
		INSERT INTO rooms (id, room_code, name, is_protected)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (room_code) DO UPDATE SET is_protected = TRUE
		RETURNING id, room_code, name, is_protected, COALESCE(created_by, 0), created_at`
	var rm domain.Room
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(), domain.DemoRoomCode, domain.DemoRoomName).
		Scan(&rm.ID, &rm.Code, &rm.Name, &rm.IsProtected, &rm.CreatedBy, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) IsProtected(ctx context.Context, id string) (bool, error) {
	var protected bool
	err := r.db.QueryRow(ctx, `SELECT is_protected FROM rooms WHERE id=$1`, id).Scan(&protected)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, domain.ErrRoomNotFound
		}
		return false, err
	}
	return protected, nil
}
