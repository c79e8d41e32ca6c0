package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/database"
	"algoryth/internal/platform/logger"

	"github.com/gosimple/slug" // For slug generation
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

const maxSlugLength = 100

type ProblemService struct {
	problemRepo     repository.ProblemRepository
	submissionRepo  repository.SubmissionRepository
	userProblemRepo repository.UserProblemRepository
	tx              database.Transactor
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	userProblemRepo repository.UserProblemRepository,
	tx database.Transactor,
) *ProblemService {
	return &ProblemService{
		problemRepo:     problemRepo,
		submissionRepo:  submissionRepo,
		userProblemRepo: userProblemRepo,
		tx:              tx,
	}
}

type ListProblemsQuery struct {
	Page       int
	PageSize   int
	Difficulty string
	Tag        string
	Search     string
}

type ProblemListResponse struct {
	Problems   []model.ProblemSummary `json:"problems"`
	Pagination common.Pagination      `json:"pagination"`
}

type CreateProblemRequest struct {
	Title       string                  `json:"title"`
	Slug        string                  `json:"slug"` // Optional, derived from title when empty
	Difficulty  model.ProblemDifficulty `json:"difficulty"`
	Tags        []string                `json:"tags"`
	Statement   string                  `json:"statement"`
	Constraints []string                `json:"constraints"`
	Examples    []model.Example         `json:"examples"`
	Hints       []string                `json:"hints"`
	TestCases   []model.TestCase        `json:"test_cases"`
}

type HintsResponse struct {
	ProblemID string   `json:"problem_id"`
	Slug      string   `json:"slug"`
	Hints     []string `json:"hints"`
	Total     int      `json:"total"`
}

// ValidateSlug rejects anything that is not lowercase alphanumerics and dashes.
func ValidateSlug(s string) error {
	if s == "" || len(s) > maxSlugLength || !slugRegex.MatchString(s) {
		return common.ValidationError(common.CodeInvalidSlug, "slug", "Invalid problem slug")
	}
	return nil
}

func normalizePage(page, pageSize, defaultSize, maxSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

func (s *ProblemService) ListProblems(ctx context.Context, q ListProblemsQuery, userID string) (*ProblemListResponse, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize, 20, 100)

	difficulty := model.ProblemDifficulty(q.Difficulty)
	if difficulty != "" && !difficulty.Valid() {
		return nil, common.ValidationError("INVALID_DIFFICULTY", "difficulty", "Difficulty must be Easy, Medium or Hard")
	}

	problems, total, err := s.problemRepo.List(ctx, model.ProblemFilter{
		Difficulty: difficulty,
		Tag:        strings.TrimSpace(q.Tag),
		Search:     strings.TrimSpace(q.Search),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}

	stats, err := s.submissionRepo.ProblemStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem stats: %w", err)
	}
	statuses := s.statusesFor(ctx, userID)

	out := make([]model.ProblemSummary, 0, len(problems))
	for _, p := range problems {
		st := stats[p.ID]
		out = append(out, model.ProblemSummary{
			ID:             p.ID,
			Slug:           p.Slug,
			Title:          p.Title,
			Difficulty:     p.Difficulty,
			Tags:           p.Tags,
			AcceptanceRate: st.AcceptanceRate(),
			Submissions:    st.Submissions,
			Status:         statuses[p.ID],
		})
	}
	return &ProblemListResponse{Problems: out, Pagination: common.NewPagination(page, pageSize, total)}, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, problemSlug, userID string) (*model.ProblemDetail, error) {
	problem, err := s.findBySlug(ctx, problemSlug)
	if err != nil {
		return nil, err
	}

	stats, err := s.submissionRepo.ProblemStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem stats: %w", err)
	}
	st := stats[problem.ID]

	return &model.ProblemDetail{
		Problem:        *problem,
		AcceptanceRate: st.AcceptanceRate(),
		Submissions:    st.Submissions,
		HasHints:       len(problem.Hints) > 0,
		SampleTests:    problem.VisibleTestCases(),
		Status:         s.statusesFor(ctx, userID)[problem.ID],
	}, nil
}

func (s *ProblemService) GetHints(ctx context.Context, problemSlug string) (*HintsResponse, error) {
	problem, err := s.findBySlug(ctx, problemSlug)
	if err != nil {
		return nil, err
	}
	if len(problem.Hints) == 0 {
		return nil, common.Errorf("no hints available for this problem: %w", common.ErrNotFound)
	}
	return &HintsResponse{ProblemID: problem.ID, Slug: problem.Slug, Hints: problem.Hints, Total: len(problem.Hints)}, nil
}

func (s *ProblemService) CreateProblem(ctx context.Context, req CreateProblemRequest) (*model.Problem, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Difficulty == "" || strings.TrimSpace(req.Statement) == "" || len(req.TestCases) == 0 {
		return nil, common.ValidationError(common.CodeMissingRequiredFields, "", "Title, difficulty, statement and at least one test case are required")
	}
	if !req.Difficulty.Valid() {
		return nil, common.ValidationError("INVALID_DIFFICULTY", "difficulty", "Difficulty must be Easy, Medium or Hard")
	}

	problemSlug := req.Slug
	if problemSlug == "" {
		problemSlug = slug.Make(req.Title)
	}
	if err := ValidateSlug(problemSlug); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = slug.Make(t); t != "" {
			tags = append(tags, t)
		}
	}

	problem := &model.Problem{
		Slug:        problemSlug,
		Title:       req.Title,
		Difficulty:  req.Difficulty,
		Tags:        tags,
		Statement:   req.Statement,
		Constraints: req.Constraints,
		Examples:    req.Examples,
		Hints:       req.Hints,
		TestCases:   req.TestCases,
	}

	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		return s.problemRepo.Create(ctx, tx, problem)
	})
	if err != nil {
		var coded *common.CodedError
		if errors.As(err, &coded) {
			return nil, err
		}
		if errors.Is(err, common.ErrConflict) {
			return nil, common.NewCodedError(common.ErrConflict, repository.CodeProblemExists, "A problem with this slug already exists")
		}
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}

	logger.Info().Str("problem_id", problem.ID).Str("slug", problem.Slug).Msg("Problem created")
	return problem, nil
}

func (s *ProblemService) findBySlug(ctx context.Context, problemSlug string) (*model.Problem, error) {
	if err := ValidateSlug(problemSlug); err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.FindBySlug(ctx, problemSlug)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewCodedError(common.ErrNotFound, common.CodeProblemNotFound, "Problem not found")
		}
		return nil, fmt.Errorf("failed to find problem: %w", err)
	}
	return problem, nil
}

// statusesFor is best effort: a failure only hides the per-user status.
func (s *ProblemService) statusesFor(ctx context.Context, userID string) map[string]model.ProblemStatus {
	out := map[string]model.ProblemStatus{}
	if userID == "" {
		return out
	}
	ups, err := s.userProblemRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load problem statuses")
		return out
	}
	for _, up := range ups {
		if up.Status == model.ProblemSolved || up.Status == model.ProblemAttempted {
			out[up.ProblemID] = up.Status
		}
	}
	return out
}
