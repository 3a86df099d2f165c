package http

import (
	"fmt"
	"net/http"

	"github.com/questroom/progress-service/internal/service"
	httpmw "github.com/questroom/progress-service/internal/transport/http/middleware"
)

// POST /progress/complete
func (h *Handler) CompleteModule(w http.ResponseWriter, r *http.Request) {
	var req CompleteModuleRequest
	if err := h.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.progressSvc.CompleteModule(r.Context(), httpmw.UserIDFromCtx(r.Context()), req.ModuleNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}

	modules := res.CompletedModules
	if modules == nil {
		modules = []int{}
	}

	writeJSON(w, http.StatusOK, CompleteModuleResponse{
		ModuleNumber:     res.ModuleNumber,
		AlreadyCompleted: res.AlreadyCompleted,
		ModuleComplete:   res.ModuleComplete,
		RoomComplete:     res.RoomComplete,
		IsDemo:           res.IsDemo,
		CompletedModules: modules,
		Message:          completionMessage(res),
	})
}

// GET /progress/me
func (h *Handler) MyProgress(w http.ResponseWriter, r *http.Request) {
	modules, err := h.progressSvc.UserProgress(r.Context(), httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if modules == nil {
		modules = []int{}
	}

	total := h.progressSvc.TotalModules()
	writeJSON(w, http.StatusOK, MyProgressResponse{
		CompletedModules:   modules,
		TotalModules:       total,
		ProgressPercentage: float64(len(modules)) / float64(total) * 100,
	})
}

func completionMessage(res *service.CompletionResult) string {
	switch {
	case res.RoomComplete && res.IsDemo:
		return "Congratulations! The room completed the entire course. Demo room progress has been reset."
	case res.RoomComplete:
		return "Congratulations! The room completed the entire course. The room is now closed."
	case res.ModuleComplete && !res.AlreadyCompleted:
		return fmt.Sprintf("Module %d completed by entire room!", res.ModuleNumber)
	case res.AlreadyCompleted:
		return fmt.Sprintf("Module %d was already completed", res.ModuleNumber)
	default:
		return fmt.Sprintf("Module %d completed", res.ModuleNumber)
	}
}
