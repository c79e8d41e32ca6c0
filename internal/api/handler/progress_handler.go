package handler

import (
	"net/http"

	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(ps *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: ps}
}

func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{userID}/progress", h.progress)
	r.With(middleware.OptionalAuth).Get("/problem-status", h.problemStatuses)
	r.With(middleware.Authenticator).Get("/activity", h.activity)
}

func (h *ProgressHandler) progress(w http.ResponseWriter, r *http.Request) {
	resp, err := h.progressService.Progress(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

// problemStatuses never fails: anonymous callers and lookup errors get an empty map.
func (h *ProgressHandler) problemStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.progressService.ProblemStatuses(r.Context(), optionalUser(r))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load problem statuses")
		statuses = map[string]model.ProblemStatus{}
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"statuses": statuses})
}

func (h *ProgressHandler) activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.progressService.Activity(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
