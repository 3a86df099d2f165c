package service

import (
	"context"
	"fmt"

	"github.com/questroom/progress-service/internal/domain"
)

type QuizStore interface {
	List(ctx context.Context) ([]domain.Quiz, error)
	Get(ctx context.Context, id int64) (*domain.Quiz, error)
	CreateAttempt(ctx context.Context, a *domain.Attempt) error
	AttemptsByUser(ctx context.Context, userID int64) ([]domain.Attempt, error)
	Leaderboard(ctx context.Context, quizID int64) ([]domain.LeaderboardRow, error)
}

type QuizService struct {
	quizzes QuizStore
}

func NewQuizService(quizzes QuizStore) *QuizService {
	return &QuizService{quizzes: quizzes}
}

func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.List(ctx)
}

// GetQuiz returns the quiz with choices. Correct flags are stripped unless
// the caller is an admin.
func (s *QuizService) GetQuiz(ctx context.Context, id int64, includeAnswers bool) (*domain.Quiz, error) {
	q, err := s.quizzes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeAnswers {
		for qi := range q.Questions {
			for ci := range q.Questions[qi].Choices {
				q.Questions[qi].Choices[ci].IsCorrect = false
			}
		}
	}
	return q, nil
}

// SubmitAttempt grades the answers against the quiz's correct choices.
// Score is points-weighted; an unanswered or wrong question scores zero.
func (s *QuizService) SubmitAttempt(ctx context.Context, userID, quizID int64, answers []domain.Answer) (*domain.Attempt, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}

	score, total := GradeAttempt(quiz, answers)

	attempt := &domain.Attempt{
		UserID:  userID,
		QuizID:  quizID,
		Score:   score,
		Total:   total,
		Answers: answers,
	}
	if err := s.quizzes.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("quizzes.CreateAttempt: %w", err)
	}
	return attempt, nil
}

// GradeAttempt computes (score, total) for a set of answers. Only the first
// answer per question counts.
func GradeAttempt(quiz *domain.Quiz, answers []domain.Answer) (score, total int) {
	points := make(map[int64]int, len(quiz.Questions))
	correct := make(map[int64]map[int64]bool, len(quiz.Questions))

	for _, q := range quiz.Questions {
		total += q.Points
		points[q.ID] = q.Points
		for _, c := range q.Choices {
			if c.IsCorrect {
				if correct[q.ID] == nil {
					correct[q.ID] = make(map[int64]bool)
				}
				correct[q.ID][c.ID] = true
			}
		}
	}

	answered := make(map[int64]bool, len(answers))
	for _, a := range answers {
		if answered[a.QuestionID] {
			continue
		}
		answered[a.QuestionID] = true
		if correct[a.QuestionID][a.ChoiceID] {
			score += points[a.QuestionID]
		}
	}
	return score, total
}

func (s *QuizService) UserAttempts(ctx context.Context, userID int64) ([]domain.Attempt, error) {
	return s.quizzes.AttemptsByUser(ctx, userID)
}

func (s *QuizService) Leaderboard(ctx context.Context, quizID int64) ([]domain.LeaderboardRow, error) {
	if _, err := s.quizzes.Get(ctx, quizID); err != nil {
		return nil, err
	}
	return s.quizzes.Leaderboard(ctx, quizID)
}
