package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/questroom/progress-service/internal/domain"
	"github.com/questroom/progress-service/internal/security"
	"github.com/questroom/progress-service/internal/service"
	"github.com/questroom/progress-service/pkg/logger"

	"github.com/go-playground/validator/v10"
)

type Handler struct {
	authSvc     *service.AuthService
	roomSvc     *service.RoomService
	progressSvc *service.ProgressService
	glossarySvc *service.GlossaryService
	quizSvc     *service.QuizService

	validate *validator.Validate
}

func NewHandler(
	auth *service.AuthService,
	room *service.RoomService,
	progress *service.ProgressService,
	glossary *service.GlossaryService,
	quiz *service.QuizService,
) *Handler {
	return &Handler{
		authSvc:     auth,
		roomSvc:     room,
		progressSvc: progress,
		glossarySvc: glossary,
		quizSvc:     quiz,
		validate:    validator.New(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode unmarshals and validates a request body.
func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

// writeError maps domain sentinels onto status codes; anything unmapped is a
// logged 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidModule):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "module number out of range"})
	case errors.Is(err, domain.ErrNotInRoom):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user not in a room"})
	case errors.Is(err, domain.ErrAlreadyJoined):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "already a member of a room"})
	case errors.Is(err, domain.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
	case errors.Is(err, domain.ErrRoomProtected):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "room is protected"})
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
	case errors.Is(err, domain.ErrUserExists):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "username or email already taken"})
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "quiz not found"})
	case errors.Is(err, domain.ErrEntryNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "glossary entry not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not allowed"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, security.ErrPasswordTooShort):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "password too short"})
	default:
		args := []any{"method", r.Method, "path", r.URL.Path, "err", err}
		for _, a := range logger.AttrsFromCtx(r.Context()) {
			args = append(args, a)
		}
		slog.Error("handler error", args...)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
