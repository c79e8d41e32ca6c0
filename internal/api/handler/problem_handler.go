package handler

import (
	"net/http"

	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Use(middleware.OptionalAuth)
		public.Get("/", h.listProblems)
		public.Get("/{problemSlug}", h.getProblem)
		public.Get("/{problemSlug}/hints", h.getHints)
	})

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createProblem) // POST /api/problems
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.problemService.ListProblems(r.Context(), service.ListProblemsQuery{
		Page:       queryInt(r, "page"),
		PageSize:   queryInt(r, "page_size", "pageSize", "limit"),
		Difficulty: q.Get("difficulty"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}, optionalUser(r))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), chi.URLParam(r, "problemSlug"), optionalUser(r))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) getHints(w http.ResponseWriter, r *http.Request) {
	hints, err := h.problemService.GetHints(r.Context(), chi.URLParam(r, "problemSlug"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, hints)
}
