package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"

	"github.com/google/uuid"
)

const (
	activityDays = 365
	dayLayout    = "2006-01-02"
)

type ProgressService struct {
	userRepo        repository.UserRepository
	problemRepo     repository.ProblemRepository
	submissionRepo  repository.SubmissionRepository
	userProblemRepo repository.UserProblemRepository
	now             func() time.Time
}

func NewProgressService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	userProblemRepo repository.UserProblemRepository,
) *ProgressService {
	return &ProgressService{
		userRepo:        userRepo,
		problemRepo:     problemRepo,
		submissionRepo:  submissionRepo,
		userProblemRepo: userProblemRepo,
		now:             time.Now,
	}
}

type DifficultyProgress struct {
	Total  int `json:"total"`
	Solved int `json:"solved"`
}

type ProblemProgress struct {
	ProblemID  string                  `json:"problem_id"`
	Slug       string                  `json:"slug"`
	Title      string                  `json:"title"`
	Difficulty model.ProblemDifficulty `json:"difficulty"`
	Status     model.ProblemStatus     `json:"status"`
	Attempts   int                     `json:"attempts"`
	SolvedAt   *time.Time              `json:"solved_at,omitempty"`
}

type ProgressResponse struct {
	UserID               string                                         `json:"user_id"`
	TotalProblems        int                                            `json:"total_problems"`
	SolvedCount          int                                            `json:"solved_count"`
	AttemptedCount       int                                            `json:"attempted_count"`
	CompletionPercentage int                                            `json:"completion_percentage"`
	DifficultyBreakdown  map[model.ProblemDifficulty]DifficultyProgress `json:"difficulty_breakdown"`
	ProblemStatuses      []ProblemProgress                              `json:"problem_statuses"`
	Streak               int                                            `json:"streak"`
}

type ActivityResponse struct {
	Activity         []model.DailyCount `json:"activity"`
	TotalSubmissions int                `json:"total_submissions"`
	ActiveDays       int                `json:"active_days"`
	Streak           int                `json:"streak"`
}

// ProblemStatuses maps both problem id and slug to the caller's status.
func (s *ProgressService) ProblemStatuses(ctx context.Context, userID string) (map[string]model.ProblemStatus, error) {
	out := map[string]model.ProblemStatus{}
	if userID == "" {
		return out, nil
	}
	ups, err := s.userProblemRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem statuses: %w", err)
	}
	for _, up := range ups {
		if up.Status != model.ProblemSolved && up.Status != model.ProblemAttempted {
			continue
		}
		out[up.ProblemID] = up.Status
		if up.ProblemSlug != "" {
			out[up.ProblemSlug] = up.Status
		}
	}
	return out, nil
}

func (s *ProgressService) Progress(ctx context.Context, userID string) (*ProgressResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.Errorf("user not found: %w", common.ErrNotFound)
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("user not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	problems, err := s.problemRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	ups, err := s.userProblemRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user problems: %w", err)
	}
	byProblem := make(map[string]model.UserProblem, len(ups))
	for _, up := range ups {
		byProblem[up.ProblemID] = up
	}

	resp := &ProgressResponse{
		UserID:        userID,
		TotalProblems: len(problems),
		DifficultyBreakdown: map[model.ProblemDifficulty]DifficultyProgress{
			model.DifficultyEasy:   {},
			model.DifficultyMedium: {},
			model.DifficultyHard:   {},
		},
		ProblemStatuses: make([]ProblemProgress, 0, len(problems)),
	}

	for _, p := range problems {
		pp := ProblemProgress{
			ProblemID:  p.ID,
			Slug:       p.Slug,
			Title:      p.Title,
			Difficulty: p.Difficulty,
			Status:     model.ProblemNotStarted,
		}
		breakdown := resp.DifficultyBreakdown[p.Difficulty]
		breakdown.Total++

		if up, ok := byProblem[p.ID]; ok {
			pp.Attempts = up.Attempts
			pp.SolvedAt = up.SolvedAt
			switch up.Status {
			case model.ProblemSolved:
				pp.Status = model.ProblemSolved
				resp.SolvedCount++
				breakdown.Solved++
			case model.ProblemAttempted:
				pp.Status = model.ProblemAttempted
				resp.AttemptedCount++
			}
		}
		resp.DifficultyBreakdown[p.Difficulty] = breakdown
		resp.ProblemStatuses = append(resp.ProblemStatuses, pp)
	}

	if resp.TotalProblems > 0 {
		resp.CompletionPercentage = int(math.Round(float64(resp.SolvedCount) / float64(resp.TotalProblems) * 100))
	}

	days, err := s.submissionRepo.DailyCounts(ctx, userID, s.windowStart())
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	resp.Streak = Streak(days, s.now())
	return resp, nil
}

func (s *ProgressService) Activity(ctx context.Context, userID string) (*ActivityResponse, error) {
	days, err := s.submissionRepo.DailyCounts(ctx, userID, s.windowStart())
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	resp := &ActivityResponse{Activity: days, Streak: Streak(days, s.now())}
	for _, d := range days {
		resp.TotalSubmissions += d.Count
		if d.Count > 0 {
			resp.ActiveDays++
		}
	}
	return resp, nil
}

// windowStart is midnight UTC of the first day in the activity window.
func (s *ProgressService) windowStart() time.Time {
	today := s.now().UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -(activityDays - 1))
}

// Streak counts consecutive UTC days with submissions, ending today or,
// when today is empty, yesterday.
func Streak(days []model.DailyCount, now time.Time) int {
	active := make(map[string]bool, len(days))
	for _, d := range days {
		if d.Count > 0 {
			active[d.Date] = true
		}
	}

	day := now.UTC().Truncate(24 * time.Hour)
	if !active[day.Format(dayLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for active[day.Format(dayLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
