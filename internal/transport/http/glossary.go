package http

import (
	"net/http"
	"strconv"

	"github.com/questroom/progress-service/internal/domain"
	httpmw "github.com/questroom/progress-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// POST /rooms/{id}/glossary
func (h *Handler) AddGlossaryEntry(w http.ResponseWriter, r *http.Request) {
	var req GlossaryEntryRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	entry, err := h.glossarySvc.AddEntry(
		r.Context(),
		chi.URLParam(r, "id"),
		httpmw.UserIDFromCtx(r.Context()),
		req.Term,
		req.Definition,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGlossaryItem(entry))
}

// GET /rooms/{id}/glossary?search=
func (h *Handler) ListGlossary(w http.ResponseWriter, r *http.Request) {
	list, err := h.glossarySvc.List(
		r.Context(),
		chi.URLParam(r, "id"),
		httpmw.UserIDFromCtx(r.Context()),
		r.URL.Query().Get("search"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := GlossaryListResponse{
		Entries:          make([]GlossaryEntryItem, 0, len(list.Entries)),
		EntryCount:       list.Stats.EntryCount,
		ContributorCount: list.Stats.ContributorCount,
		Search:           list.Search,
	}
	for i := range list.Entries {
		resp.Entries = append(resp.Entries, toGlossaryItem(&list.Entries[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// PUT /glossary/{entryID}
func (h *Handler) UpdateGlossaryEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid entry id"})
		return
	}

	var req GlossaryUpdateRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	isAdmin := httpmw.RoleFromCtx(r.Context()) == domain.RoleAdmin
	entry, err := h.glossarySvc.UpdateEntry(
		r.Context(),
		entryID,
		httpmw.UserIDFromCtx(r.Context()),
		isAdmin,
		req.Term,
		req.Definition,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGlossaryItem(entry))
}

// DELETE /glossary/{entryID}
func (h *Handler) DeleteGlossaryEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid entry id"})
		return
	}

	isAdmin := httpmw.RoleFromCtx(r.Context()) == domain.RoleAdmin
	if err := h.glossarySvc.DeleteEntry(r.Context(), entryID, httpmw.UserIDFromCtx(r.Context()), isAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func toGlossaryItem(e *domain.GlossaryEntry) GlossaryEntryItem {
	return GlossaryEntryItem{
		ID:         e.ID,
		RoomID:     e.RoomID,
		Term:       e.Term,
		Definition: e.Definition,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
