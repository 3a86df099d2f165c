package postgres

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/questroom/progress-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QuizRepository struct {
	db *pgxpool.Pool
}

func NewQuizRepository(db *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) List(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, created_at
		FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Quiz
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// Get loads a quiz with its questions and choices, including the correct
// flags; the service decides whether to expose them.
func (r *QuizRepository) Get(ctx context.Context, id int64) (*domain.Quiz, error) {
	var q domain.Quiz
	err := r.db.QueryRow(ctx, `
		SELECT id, title, description, created_at FROM quizzes WHERE id=$1`, id).
		Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrQuizNotFound
		}
		return nil, err
	}

	qRows, err := r.db.Query(ctx, `
		SELECT id, quiz_id, text, points
		FROM quiz_questions WHERE quiz_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer qRows.Close()

	byID := make(map[int64]int)
	for qRows.Next() {
		var question domain.Question
		if err := qRows.Scan(&question.ID, &question.QuizID, &question.Text, &question.Points); err != nil {
			return nil, err
		}
		byID[question.ID] = len(q.Questions)
		q.Questions = append(q.Questions, question)
	}
	if err := qRows.Err(); err != nil {
		return nil, err
	}

	cRows, err := r.db.Query(ctx, `
		SELECT c.id, c.question_id, c.text, c.is_correct
		FROM quiz_choices c
		JOIN quiz_questions qq ON qq.id = c.question_id
		WHERE qq.quiz_id=$1 ORDER BY c.id`, id)
	if err != nil {
		return nil, err
	}
	defer cRows.Close()

	for cRows.Next() {
		var ch domain.Choice
		if err := cRows.Scan(&ch.ID, &ch.QuestionID, &ch.Text, &ch.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := byID[ch.QuestionID]; ok {
			q.Questions[i].Choices = append(q.Questions[i].Choices, ch)
		}
	}
	return &q, cRows.Err()
}

func (r *QuizRepository) CreateAttempt(ctx context.Context, a *domain.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO quiz_attempts (user_id, quiz_id, score, total, answers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, submitted_at`
	return r.db.QueryRow(ctx, query, a.UserID, a.QuizID, a.Score, a.Total, answers).
		Scan(&a.ID, &a.SubmittedAt)
}

func (r *QuizRepository) AttemptsByUser(ctx context.Context, userID int64) ([]domain.Attempt, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, quiz_id, score, total, answers, submitted_at
		FROM quiz_attempts WHERE user_id=$1 ORDER BY submitted_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var raw []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.Total, &raw, &a.SubmittedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &a.Answers); err != nil {
				return nil, err
			}
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Leaderboard returns each user's best attempt on a quiz, highest score
// first, earlier submission breaking ties.
func (r *QuizRepository) Leaderboard(ctx context.Context, quizID int64) ([]domain.LeaderboardRow, error) {
	const q = `
SELECT DISTINCT ON (a.user_id)
       a.user_id, u.username, a.score, a.total, a.submitted_at
FROM quiz_attempts a
JOIN users u ON u.id = a.user_id
WHERE a.quiz_id = $1
ORDER BY a.user_id, a.score DESC, a.submitted_at ASC;
`
	rows, err := r.db.Query(ctx, q, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []domain.LeaderboardRow
	for rows.Next() {
		var row domain.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Score, &row.Total, &row.SubmittedAt); err != nil {
			return nil, err
		}
		board = append(board, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DISTINCT ON gives best-per-user; final order is by score
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].SubmittedAt.Before(board[j].SubmittedAt)
	})
	return board, nil
}
