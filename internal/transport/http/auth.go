package http

import (
	"net/http"

	httpmw "github.com/questroom/progress-service/internal/transport/http/middleware"
)

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.authSvc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		User:        toUserItem(res.User),
		AccessToken: res.AccessToken,
	})
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		User:        toUserItem(res.User),
		AccessToken: res.AccessToken,
	})
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	user, err := h.authSvc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	modules, err := h.progressSvc.UserProgress(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if modules == nil {
		modules = []int{}
	}

	writeJSON(w, http.StatusOK, MeResponse{
		User:             toUserItem(user),
		CompletedModules: modules,
	})
}
