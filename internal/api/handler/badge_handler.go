package handler

import (
	"net/http"

	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/common"

	"github.com/go-chi/chi/v5"
)

type BadgeHandler struct {
	badgeService *service.BadgeService
}

func NewBadgeHandler(bs *service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: bs}
}

func (h *BadgeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.catalog)
	r.Group(func(auth chi.Router) {
		auth.Use(middleware.Authenticator)
		auth.Get("/user", h.listMine)
		auth.Get("/user/progress", h.progress)
	})
}

func (h *BadgeHandler) catalog(w http.ResponseWriter, r *http.Request) {
	badges, err := h.badgeService.Catalog(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"badges": badges, "total": len(badges)})
}

func (h *BadgeHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.badgeService.ListMine(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *BadgeHandler) progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.badgeService.Progress(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
