package handler

import (
	"net/http"

	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(ps *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: ps}
}

// RegisterRoutes mounts /user/profile.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/", h.getMine)
	r.Put("/", h.updateMine)
}

// RegisterPublicRoutes adds /users/{username} to the api router.
func (h *ProfileHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/users/{username}", h.getPublic)
}

func (h *ProfileHandler) getMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.profileService.GetMine(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProfileHandler) updateMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.profileService.UpdateMine(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    resp.User,
		"profile": resp.Profile,
	})
}

func (h *ProfileHandler) getPublic(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.Public(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}
