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
	"algoryth/internal/platform/logger"
)

const upcomingBadgeCount = 5

type BadgeService struct {
	badgeRepo      repository.BadgeRepository
	profileRepo    repository.ProfileRepository
	submissionRepo repository.SubmissionRepository
	now            func() time.Time
}

func NewBadgeService(
	badgeRepo repository.BadgeRepository,
	profileRepo repository.ProfileRepository,
	submissionRepo repository.SubmissionRepository,
) *BadgeService {
	return &BadgeService{
		badgeRepo:      badgeRepo,
		profileRepo:    profileRepo,
		submissionRepo: submissionRepo,
		now:            time.Now,
	}
}

type UserBadgesResponse struct {
	Badges []model.UserBadge `json:"badges"`
	Total  int               `json:"total"`
}

type UpcomingBadge struct {
	model.Badge
	Current int `json:"current"`
}

type BadgeProgressResponse struct {
	EarnedCount      int             `json:"earned_count"`
	UpcomingCount    int             `json:"upcoming_count"`
	TotalBadges      int             `json:"total_badges"`
	EarnedPercentage float64         `json:"earned_percentage"`
	NextBadges       []UpcomingBadge `json:"next_badges"`
}

// badgeFacts loads each input at most once per evaluation.
type badgeFacts struct {
	ctx     context.Context
	svc     *BadgeService
	userID  string
	profile *model.UserProfile

	languages *int
	recent    []model.SubmissionStatus
}

func (f *badgeFacts) loadProfile() (*model.UserProfile, error) {
	if f.profile != nil {
		return f.profile, nil
	}
	p, err := f.svc.profileRepo.FindByUserID(f.ctx, f.userID)
	if errors.Is(err, common.ErrNotFound) {
		p = model.NewUserProfile("", f.userID, f.svc.now())
	} else if err != nil {
		return nil, err
	}
	f.profile = p
	return p, nil
}

func (f *badgeFacts) languageCount() (int, error) {
	if f.languages != nil {
		return *f.languages, nil
	}
	n, err := f.svc.submissionRepo.DistinctAcceptedLanguages(f.ctx, f.userID)
	if err != nil {
		return 0, err
	}
	f.languages = &n
	return n, nil
}

// acceptedStreak counts accepted verdicts at the head of the recent history.
func (f *badgeFacts) acceptedStreak(limit int) (int, error) {
	if f.recent == nil {
		recent, err := f.svc.submissionRepo.RecentStatuses(f.ctx, f.userID, limit)
		if err != nil {
			return 0, err
		}
		f.recent = recent
	}
	n := 0
	for _, st := range f.recent {
		if st != model.StatusAccepted {
			break
		}
		n++
	}
	return n, nil
}

// current reports how far the user is towards b. Submission-specific
// conditions report 0 outside of an evaluation.
func (f *badgeFacts) current(b model.Badge) (int, error) {
	switch b.Condition {
	case model.ConditionSolvedTotal, model.ConditionSolvedEasy, model.ConditionSolvedMedium, model.ConditionSolvedHard:
		p, err := f.loadProfile()
		if err != nil {
			return 0, err
		}
		switch b.Condition {
		case model.ConditionSolvedEasy:
			return p.Solved.Easy, nil
		case model.ConditionSolvedMedium:
			return p.Solved.Medium, nil
		case model.ConditionSolvedHard:
			return p.Solved.Hard, nil
		}
		return p.Solved.Total, nil
	case model.ConditionAcceptedStreak:
		return f.acceptedStreak(b.Threshold)
	case model.ConditionLanguagesAccepted:
		return f.languageCount()
	}
	return 0, nil
}

// earned decides whether sub completes b.
func (f *badgeFacts) earned(b model.Badge, sub *model.Submission) (bool, error) {
	accepted := sub != nil && sub.Status == model.StatusAccepted
	switch b.Condition {
	case model.ConditionFailedBeforeSolve:
		if !accepted {
			return false, nil
		}
		failed, err := f.svc.submissionRepo.CountFailed(f.ctx, f.userID, sub.ProblemID)
		if err != nil {
			return false, err
		}
		return failed >= b.Threshold, nil
	case model.ConditionFastestOnProblem:
		if !accepted {
			return false, nil
		}
		fastest, ok, err := f.svc.submissionRepo.FastestAccepted(f.ctx, sub.ProblemID)
		if err != nil {
			return false, err
		}
		return ok && sub.ExecutionTimeMs <= fastest, nil
	default:
		n, err := f.current(b)
		if err != nil {
			return false, err
		}
		return n >= b.Threshold, nil
	}
}

// Evaluate awards every active badge the user does not own yet and now qualifies for.
func (s *BadgeService) Evaluate(ctx context.Context, sub *model.Submission) ([]model.Badge, error) {
	catalog, err := s.badgeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	owned, err := s.ownedSet(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}

	facts := &badgeFacts{ctx: ctx, svc: s, userID: sub.UserID}
	now := s.now()
	var awarded []model.Badge
	for _, b := range catalog {
		if owned[b.ID] {
			continue
		}
		ok, err := facts.earned(b, sub)
		if err != nil {
			return awarded, fmt.Errorf("failed to evaluate badge %s: %w", b.ID, err)
		}
		if !ok {
			continue
		}
		isNew, err := s.badgeRepo.Award(ctx, nil, sub.UserID, b.ID, now)
		if err != nil {
			return awarded, fmt.Errorf("failed to award badge %s: %w", b.ID, err)
		}
		if isNew {
			logger.Info().Str("user_id", sub.UserID).Str("badge", b.ID).Msg("Badge awarded")
			awarded = append(awarded, b)
		}
	}
	return awarded, nil
}

// Catalog lists every active badge in display order.
func (s *BadgeService) Catalog(ctx context.Context) ([]model.Badge, error) {
	badges, err := s.badgeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeService) ListMine(ctx context.Context, userID string) (*UserBadgesResponse, error) {
	badges, err := s.badgeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return &UserBadgesResponse{Badges: badges, Total: len(badges)}, nil
}

func (s *BadgeService) Progress(ctx context.Context, userID string) (*BadgeProgressResponse, error) {
	catalog, err := s.badgeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	owned, err := s.ownedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &BadgeProgressResponse{TotalBadges: len(catalog), NextBadges: []UpcomingBadge{}}
	facts := &badgeFacts{ctx: ctx, svc: s, userID: userID}
	for _, b := range catalog {
		if owned[b.ID] {
			resp.EarnedCount++
			continue
		}
		resp.UpcomingCount++
		if len(resp.NextBadges) >= upcomingBadgeCount {
			continue
		}
		cur, err := facts.current(b)
		if err != nil {
			return nil, fmt.Errorf("failed to compute progress for %s: %w", b.ID, err)
		}
		resp.NextBadges = append(resp.NextBadges, UpcomingBadge{Badge: b, Current: min(cur, b.Threshold)})
	}
	if resp.TotalBadges > 0 {
		pct := float64(resp.EarnedCount) / float64(resp.TotalBadges) * 100
		resp.EarnedPercentage = math.Round(pct*100) / 100
	}
	return resp, nil
}

func (s *BadgeService) ownedSet(ctx context.Context, userID string) (map[string]bool, error) {
	mine, err := s.badgeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	owned := make(map[string]bool, len(mine))
	for _, ub := range mine {
		owned[ub.BadgeID] = true
	}
	return owned, nil
}
