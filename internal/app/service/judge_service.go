package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/database"
	"algoryth/internal/platform/executor"
	"algoryth/internal/platform/logger"
)

// JudgeService grades queued submissions against every test case of their problem.
type JudgeService struct {
	submissionRepo  repository.SubmissionRepository
	problemRepo     repository.ProblemRepository
	userProblemRepo repository.UserProblemRepository
	profileRepo     repository.ProfileRepository
	runner          executor.Runner
	badges          *BadgeService
	leaderboard     *LeaderboardService
	tx              database.Transactor
	now             func() time.Time
}

func NewJudgeService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userProblemRepo repository.UserProblemRepository,
	profileRepo repository.ProfileRepository,
	runner executor.Runner,
	badges *BadgeService,
	leaderboard *LeaderboardService,
	tx database.Transactor,
) *JudgeService {
	return &JudgeService{
		submissionRepo:  subRepo,
		problemRepo:     probRepo,
		userProblemRepo: userProblemRepo,
		profileRepo:     profileRepo,
		runner:          runner,
		badges:          badges,
		leaderboard:     leaderboard,
		tx:              tx,
		now:             time.Now,
	}
}

type verdict struct {
	status   model.SubmissionStatus
	passed   int
	timeMs   int
	memoryKb int
	message  string
}

// Judge runs the submission and stores its verdict. An error wrapping
// common.ErrServiceUnavailable means the executor could not be reached and
// nothing was written, so the job may be retried.
func (s *JudgeService) Judge(ctx context.Context, submissionID string) (*model.Submission, error) {
	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}
	if sub.Status != model.StatusPending {
		logger.Warn().Str("submission_id", sub.ID).Str("status", string(sub.Status)).Msg("Submission already judged, skipping")
		return sub, nil
	}

	problem, err := s.problemRepo.FindByID(ctx, sub.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem %s: %w", sub.ProblemID, err)
	}

	var v verdict
	lang, ok := model.LookupLanguage(sub.Language)
	switch {
	case !ok:
		v = verdict{status: model.StatusSystemError, message: fmt.Sprintf("Unsupported language: %s", sub.Language)}
	case len(problem.TestCases) == 0:
		v = verdict{status: model.StatusSystemError, message: "Problem has no test cases"}
	default:
		v, err = s.evaluate(ctx, lang, sub.Code, problem.TestCases)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	sub.Status = v.status
	sub.TestCasesPassed = v.passed
	sub.TotalTestCases = len(problem.TestCases)
	sub.ExecutionTimeMs = v.timeMs
	sub.MemoryKb = v.memoryKb
	sub.ErrorMessage = v.message
	sub.JudgedAt = &now

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.submissionRepo.UpdateVerdict(ctx, tx, sub); err != nil {
			return err
		}
		if sub.Status != model.StatusAccepted {
			return nil
		}
		return s.userProblemRepo.MarkSolved(ctx, tx, &model.UserProblem{
			UserID:           sub.UserID,
			ProblemID:        problem.ID,
			ProblemSlug:      problem.Slug,
			ProblemTitle:     problem.Title,
			Status:           model.ProblemSolved,
			LastSubmissionAt: &sub.SubmittedAt,
			SolvedAt:         &now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store verdict for %s: %w", sub.ID, err)
	}

	logger.Info().
		Str("submission_id", sub.ID).
		Str("status", string(sub.Status)).
		Int("passed", sub.TestCasesPassed).
		Int("total", sub.TotalTestCases).
		Msg("Submission judged")

	// The verdict is stored; what follows only refreshes derived data.
	if err := s.RefreshProfileStats(ctx, sub.UserID); err != nil {
		logger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to refresh profile stats")
	}
	if s.badges != nil {
		if _, err := s.badges.Evaluate(ctx, sub); err != nil {
			logger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to evaluate badges")
		}
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	return sub, nil
}

func (s *JudgeService) evaluate(ctx context.Context, lang model.Language, code string, cases []model.TestCase) (verdict, error) {
	v := verdict{status: model.StatusAccepted}
	for i, tc := range cases {
		res, err := s.runner.Run(ctx, lang, code, tc.Input)
		if err != nil {
			return verdict{}, err
		}
		v.timeMs = max(v.timeMs, res.TimeMs)
		v.memoryKb = max(v.memoryKb, res.MemoryKb)

		if !res.Succeeded() {
			v.status = statusForFailure(res.Failure)
			v.message = res.Message
			return v, nil
		}
		if !executor.OutputsMatch(res.Stdout, tc.ExpectedOutput) {
			v.status = model.StatusWrongAnswer
			v.message = fmt.Sprintf("Wrong answer on test case %d", i+1)
			return v, nil
		}
		v.passed++
	}
	return v, nil
}

func statusForFailure(kind executor.FailureKind) model.SubmissionStatus {
	switch kind {
	case executor.FailureCompilation:
		return model.StatusCompilationError
	case executor.FailureTimeout:
		return model.StatusTimeLimitExceeded
	case executor.FailureRuntime:
		return model.StatusRuntimeError
	default:
		return model.StatusSystemError
	}
}

// MarkSystemError gives up on a submission the executor never answered for.
func (s *JudgeService) MarkSystemError(ctx context.Context, submissionID, message string) error {
	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}
	if sub.Status != model.StatusPending {
		return nil
	}
	now := s.now()
	sub.Status = model.StatusSystemError
	sub.ErrorMessage = message
	sub.JudgedAt = &now
	if err := s.submissionRepo.UpdateVerdict(ctx, nil, sub); err != nil {
		return fmt.Errorf("failed to mark %s as system error: %w", submissionID, err)
	}
	logger.Warn().Str("submission_id", submissionID).Str("reason", message).Msg("Submission marked as system error")
	return nil
}

// RefreshProfileStats recomputes submission counters and per-difficulty solved counts.
func (s *JudgeService) RefreshProfileStats(ctx context.Context, userID string) error {
	total, accepted, err := s.submissionRepo.CountsForUser(ctx, nil, userID)
	if err != nil {
		return err
	}
	solved, err := solvedByDifficulty(ctx, s.userProblemRepo, s.problemRepo, userID)
	if err != nil {
		return err
	}
	subs := model.SubmissionStats{Total: total, Accepted: accepted, AcceptanceRate: model.AcceptanceRate(accepted, total)}

	err = s.profileRepo.UpdateStats(ctx, nil, userID, solved, subs)
	if errors.Is(err, common.ErrNotFound) {
		// Users created before profiles existed get one now.
		profile := model.NewUserProfile(newID(), userID, s.now())
		if err := s.profileRepo.Create(ctx, nil, profile); err != nil && !errors.Is(err, common.ErrConflict) {
			return err
		}
		err = s.profileRepo.UpdateStats(ctx, nil, userID, solved, subs)
	}
	return err
}

func solvedByDifficulty(ctx context.Context, ups repository.UserProblemRepository, problems repository.ProblemRepository, userID string) (model.SolvedStats, error) {
	var out model.SolvedStats
	list, err := ups.ListByUser(ctx, userID)
	if err != nil {
		return out, err
	}
	all, err := problems.ListAll(ctx)
	if err != nil {
		return out, err
	}
	difficulty := make(map[string]model.ProblemDifficulty, len(all))
	for _, p := range all {
		difficulty[p.ID] = p.Difficulty
	}
	for _, up := range list {
		if up.Status != model.ProblemSolved {
			continue
		}
		switch difficulty[up.ProblemID] {
		case model.DifficultyEasy:
			out.Easy++
		case model.DifficultyMedium:
			out.Medium++
		case model.DifficultyHard:
			out.Hard++
		}
	}
	out.Total = out.Easy + out.Medium + out.Hard
	return out, nil
}
