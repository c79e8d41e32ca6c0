package handler

import (
	"net/http"

	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	limit       func(http.Handler) http.Handler
}

// NewAuthHandler wraps register and login in limit when it is not nil.
func NewAuthHandler(authService *service.AuthService, limit func(http.Handler) http.Handler) *AuthHandler {
	if limit == nil {
		limit = passthrough
	}
	return &AuthHandler{authService: authService, limit: limit}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(h.limit).Post("/register", h.register)
	r.With(h.limit).Post("/login", h.login)
	r.With(middleware.Authenticator).Get("/verify", h.verify)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.authService.Verify(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "user": user})
}
