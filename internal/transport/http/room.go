package http

import (
	"log/slog"
	"net/http"

	httpmw "github.com/questroom/progress-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// POST /rooms (admin)
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRoomItem(room))
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomSvc.ListRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms))}
	for _, rm := range rooms {
		item := toRoomItem(&rm.Room)
		item.MemberCount = rm.MemberCount
		resp.Items = append(resp.Items, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// DELETE /rooms/{id} (admin)
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.roomSvc.DeleteRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /rooms/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.roomSvc.JoinByCode(r.Context(), req.RoomCode, httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// POST /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	userID := httpmw.UserIDFromCtx(r.Context())

	if err := h.roomSvc.LeaveRoom(r.Context(), roomID, userID); err != nil {
		writeError(w, r, err)
		return
	}

	// the departed member may have been the last one blocking a module
	if err := h.progressSvc.ReevaluateRoom(r.Context(), roomID); err != nil {
		slog.Warn("reevaluate after leave failed", "room_id", roomID, "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// GET /rooms/{id}/members
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.roomSvc.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := MembersResponse{Items: make([]MemberItem, 0, len(members))}
	for _, m := range members {
		resp.Items = append(resp.Items, MemberItem{
			UserID:   m.UserID,
			Username: m.Username,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}/progress
func (h *Handler) GetRoomProgress(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if _, err := h.roomSvc.GetRoom(r.Context(), roomID); err != nil {
		writeError(w, r, err)
		return
	}

	progress, err := h.progressSvc.RoomProgress(r.Context(), roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := RoomProgressResponse{
		TotalModules:     progress.TotalModules,
		CompletedModules: progress.CompletedModules,
		Members:          make([]MemberProgressItem, 0, len(progress.Members)),
	}
	if resp.CompletedModules == nil {
		resp.CompletedModules = []int{}
	}
	for _, m := range progress.Members {
		modules := m.CompletedModules
		if modules == nil {
			modules = []int{}
		}
		resp.Members = append(resp.Members, MemberProgressItem{
			UserID:           m.UserID,
			Username:         m.Username,
			CompletedModules: modules,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
