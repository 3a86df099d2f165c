package http

import (
	"net/http"
	"strconv"

	"github.com/questroom/progress-service/internal/domain"
	httpmw "github.com/questroom/progress-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// GET /quizzes
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizSvc.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]QuizItem, 0, len(quizzes))
	for i := range quizzes {
		items = append(items, toQuizItem(&quizzes[i]))
	}

	writeJSON(w, http.StatusOK, map[string][]QuizItem{"items": items})
}

// GET /quizzes/{quizID}
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	includeAnswers := httpmw.RoleFromCtx(r.Context()) == domain.RoleAdmin
	quiz, err := h.quizSvc.GetQuiz(r.Context(), quizID, includeAnswers)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuizItem(quiz))
}

// POST /quizzes/{quizID}/attempts
func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	var req SubmitAttemptRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.Answer{QuestionID: a.QuestionID, ChoiceID: a.ChoiceID})
	}

	attempt, err := h.quizSvc.SubmitAttempt(r.Context(), httpmw.UserIDFromCtx(r.Context()), quizID, answers)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAttemptItem(attempt))
}

// GET /quizzes/attempts/me
func (h *Handler) MyAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizSvc.UserAttempts(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]AttemptItem, 0, len(attempts))
	for i := range attempts {
		items = append(items, toAttemptItem(&attempts[i]))
	}

	writeJSON(w, http.StatusOK, map[string][]AttemptItem{"items": items})
}

// GET /quizzes/{quizID}/leaderboard
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid quiz id"})
		return
	}

	rows, err := h.quizSvc.Leaderboard(r.Context(), quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]LeaderboardItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, LeaderboardItem{
			UserID:      row.UserID,
			Username:    row.Username,
			Score:       row.Score,
			Total:       row.Total,
			SubmittedAt: row.SubmittedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string][]LeaderboardItem{"items": items})
}

func toQuizItem(q *domain.Quiz) QuizItem {
	item := QuizItem{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		CreatedAt:   q.CreatedAt,
	}
	for _, question := range q.Questions {
		qi := QuestionItem{
			ID:      question.ID,
			Text:    question.Text,
			Points:  question.Points,
			Choices: make([]ChoiceItem, 0, len(question.Choices)),
		}
		for _, c := range question.Choices {
			qi.Choices = append(qi.Choices, ChoiceItem{ID: c.ID, Text: c.Text})
		}
		item.Questions = append(item.Questions, qi)
	}
	return item
}

func toAttemptItem(a *domain.Attempt) AttemptItem {
	return AttemptItem{
		ID:          a.ID,
		QuizID:      a.QuizID,
		Score:       a.Score,
		Total:       a.Total,
		SubmittedAt: a.SubmittedAt,
	}
}
