package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/database"
	"algoryth/internal/platform/logger"
	"algoryth/internal/platform/queue"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo  repository.SubmissionRepository
	problemRepo     repository.ProblemRepository
	userProblemRepo repository.UserProblemRepository
	jobs            queue.JobQueue
	tx              database.Transactor
	maxCodeLength   int
	now             func() time.Time
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userProblemRepo repository.UserProblemRepository,
	jobs queue.JobQueue,
	tx database.Transactor,
	maxCodeLength int,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo:  subRepo,
		problemRepo:     probRepo,
		userProblemRepo: userProblemRepo,
		jobs:            jobs,
		tx:              tx,
		maxCodeLength:   maxCodeLength,
		now:             time.Now,
	}
}

type CreateSubmissionRequest struct {
	ProblemSlug string `json:"problem_slug"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

type ListSubmissionsQuery struct {
	Page        int
	PageSize    int
	ProblemSlug string
	Status      string
}

type SubmissionListResponse struct {
	Submissions []model.Submission `json:"submissions"`
	Pagination  common.Pagination  `json:"pagination"`
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, userID string, req CreateSubmissionRequest) (*model.Submission, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, common.ValidationError(common.CodeMissingRequiredFields, "code", "Code is required")
	}
	if req.ProblemSlug == "" || req.Language == "" {
		return nil, common.ValidationError(common.CodeMissingRequiredFields, "", "Problem and language are required")
	}

	problem, err := s.problemRepo.FindBySlug(ctx, req.ProblemSlug)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewCodedError(common.ErrNotFound, common.CodeProblemNotFound, "Problem not found")
		}
		return nil, fmt.Errorf("failed to find problem: %w", err)
	}
	if len(problem.TestCases) == 0 {
		return nil, common.NewCodedError(common.ErrNotFound, common.CodeProblemNotFound, "Problem has no test cases")
	}

	lang, err := ResolveLanguage(req.Language, req.Code, s.maxCodeLength)
	if err != nil {
		return nil, err
	}
	if !lang.Submittable {
		return nil, common.ValidationError(common.CodeUnsupportedLanguage, "language", fmt.Sprintf("Unsupported language: %s", req.Language))
	}

	now := s.now()
	submission := &model.Submission{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		ProblemSlug:    problem.Slug,
		ProblemTitle:   problem.Title,
		Difficulty:     problem.Difficulty,
		Language:       lang.ID,
		Code:           req.Code,
		Status:         model.StatusPending,
		TotalTestCases: len(problem.TestCases),
		SubmittedAt:    now,
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.submissionRepo.Create(ctx, tx, submission); err != nil {
			return err
		}
		return s.userProblemRepo.MarkAttempted(ctx, tx, &model.UserProblem{
			UserID:           userID,
			ProblemID:        problem.ID,
			ProblemSlug:      problem.Slug,
			ProblemTitle:     problem.Title,
			Status:           model.ProblemAttempted,
			LastSubmissionAt: &now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	// Pushed after commit so the worker never sees an id it cannot load.
	if err := s.jobs.Enqueue(ctx, model.JudgeJob{SubmissionID: submission.ID, EnqueuedAt: now}); err != nil {
		logger.Error().Err(err).Str("submission_id", submission.ID).Msg("Failed to enqueue judge job")
		s.abandon(ctx, submission)
		return nil, fmt.Errorf("failed to enqueue submission: %v: %w", err, common.ErrServiceUnavailable)
	}

	logger.Info().Str("submission_id", submission.ID).Str("user_id", userID).Str("problem", problem.Slug).Msg("Submission queued")
	return submission, nil
}

// abandon closes a submission that never reached the queue so it does not sit in Pending forever.
func (s *SubmissionService) abandon(ctx context.Context, submission *model.Submission) {
	judgedAt := s.now()
	submission.Status = model.StatusSystemError
	submission.ErrorMessage = MsgExecutorUnavailable
	submission.JudgedAt = &judgedAt
	if err := s.submissionRepo.UpdateVerdict(context.WithoutCancel(ctx), nil, submission); err != nil {
		logger.Error().Err(err).Str("submission_id", submission.ID).Msg("Failed to close unqueued submission")
	}
}

func (s *SubmissionService) GetSubmission(ctx context.Context, userID, id string) (*model.Submission, error) {
	// Ids are uuids; anything else cannot exist.
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.Errorf("submission not found: %w", common.ErrNotFound)
	}
	sub, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("submission not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	if sub.UserID != userID {
		return nil, common.Errorf("access denied: %w", common.ErrForbidden)
	}
	return sub, nil
}

func (s *SubmissionService) DeleteSubmission(ctx context.Context, userID, id string) error {
	if _, err := s.GetSubmission(ctx, userID, id); err != nil {
		return err
	}
	if err := s.submissionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.Errorf("submission not found: %w", common.ErrNotFound)
		}
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}

func (s *SubmissionService) ListMine(ctx context.Context, userID string, q ListSubmissionsQuery) (*SubmissionListResponse, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize, 20, 100)

	status := model.SubmissionStatus(q.Status)
	if status != "" && !status.Valid() {
		return nil, common.ValidationError("INVALID_STATUS", "status", "Unknown submission status")
	}

	subs, total, err := s.submissionRepo.List(ctx, model.SubmissionFilter{
		UserID:      userID,
		ProblemSlug: q.ProblemSlug,
		Status:      status,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return &SubmissionListResponse{Submissions: subs, Pagination: common.NewPagination(page, pageSize, total)}, nil
}
