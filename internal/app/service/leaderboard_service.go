package service

import (
	"context"
	"fmt"
	"time"

	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/logger"
	"algoryth/internal/platform/queue"
)

const (
	leaderboardCachePrefix  = "leaderboard:"
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
	anonymousUsername       = "Anonymous"
)

// LeaderboardService serves ranked profile pages, cached in Redis when a cache is configured.
type LeaderboardService struct {
	profileRepo repository.ProfileRepository
	cache       queue.Cache
	ttl         time.Duration
}

func NewLeaderboardService(profileRepo repository.ProfileRepository, cache queue.Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{profileRepo: profileRepo, cache: cache, ttl: ttl}
}

type LeaderboardPagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type LeaderboardResponse struct {
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	Pagination  LeaderboardPagination    `json:"pagination"`
	SortBy      string                   `json:"sort_by"`
}

func (s *LeaderboardService) Get(ctx context.Context, page, limit int, sortBy string) (*LeaderboardResponse, error) {
	page, limit = normalizePage(page, limit, defaultLeaderboardLimit, maxLeaderboardLimit)
	switch sortBy {
	case model.LeaderboardSortRating, model.LeaderboardSortSolved, model.LeaderboardSortSubmissions:
	default:
		sortBy = model.LeaderboardSortRating
	}

	key := fmt.Sprintf("%s%s:%d:%d", leaderboardCachePrefix, sortBy, page, limit)
	if s.cache != nil {
		var cached LeaderboardResponse
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Leaderboard cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	rows, total, err := s.profileRepo.Leaderboard(ctx, sortBy, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	resp := &LeaderboardResponse{
		Leaderboard: make([]model.LeaderboardEntry, 0, len(rows)),
		Pagination: LeaderboardPagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
		SortBy: sortBy,
	}
	for i, row := range rows {
		p := row.Profile
		username := anonymousUsername
		if p.Username != nil && *p.Username != "" {
			username = *p.Username
		}
		resp.Leaderboard = append(resp.Leaderboard, model.LeaderboardEntry{
			Position:       (page-1)*limit + i + 1,
			UserID:         p.UserID,
			Username:       username,
			Name:           row.Name,
			Avatar:         p.Avatar,
			Rating:         p.Rating,
			Rank:           p.Rank,
			ProblemsSolved: p.Solved.Total,
			Submissions:    p.Submissions.Total,
			Accepted:       p.Submissions.Accepted,
			AcceptanceRate: p.Submissions.AcceptanceRate,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Leaderboard cache write failed")
		}
	}
	return resp, nil
}

// Invalidate drops every cached page. Failures are logged; entries expire on their own.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, leaderboardCachePrefix); err != nil {
		logger.Warn().Err(err).Msg("Leaderboard cache invalidation failed")
	}
}
