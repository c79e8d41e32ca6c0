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

type ExecuteHandler struct {
	executeService *service.ExecuteService
	limit          func(http.Handler) http.Handler
}

func NewExecuteHandler(es *service.ExecuteService, limit func(http.Handler) http.Handler) *ExecuteHandler {
	if limit == nil {
		limit = passthrough
	}
	return &ExecuteHandler{executeService: es, limit: limit}
}

func (h *ExecuteHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.OptionalAuth, h.limit).Post("/", h.execute)
}

// RegisterLanguageRoutes exposes the language catalog.
func (h *ExecuteHandler) RegisterLanguageRoutes(r chi.Router) {
	r.Get("/", h.languages)
}

func (h *ExecuteHandler) execute(w http.ResponseWriter, r *http.Request) {
	var req service.ExecuteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.executeService.Execute(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	logger.Debug().
		Str("user_id", optionalUser(r)).
		Str("language", resp.Language).
		Str("status", resp.Status).
		Msg("Code executed")
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ExecuteHandler) languages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"languages": model.ListLanguages()})
}
