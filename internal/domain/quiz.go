package domain

import "time"

type Quiz struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	Questions   []Question
}

type Question struct {
	ID     int64  `db:"id"`
	QuizID int64  `db:"quiz_id"`
	Text   string `db:"text"`
	Points int    `db:"points"`
	Choices []Choice
}

type Choice struct {
	ID         int64  `db:"id"`
	QuestionID int64  `db:"question_id"`
	Text       string `db:"text"`
	IsCorrect  bool   `db:"is_correct"`
}

// Answer is one submitted (question, choice) pair of an attempt.
type Answer struct {
	QuestionID int64 `json:"question_id"`
	ChoiceID   int64 `json:"choice_id"`
}

type Attempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	QuizID      int64     `db:"quiz_id"`
	Score       int       `db:"score"`
	Total       int       `db:"total"`
	Answers     []Answer  `db:"answers"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// LeaderboardRow is a user's best attempt on a quiz.
type LeaderboardRow struct {
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	Score       int       `db:"score"`
	Total       int       `db:"total"`
	SubmittedAt time.Time `db:"submitted_at"`
}
