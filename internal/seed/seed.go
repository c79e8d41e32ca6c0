package seed

import (
	"context"
	"fmt"

	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/logger"

	"github.com/gosimple/slug"
)

// Seeder upserts the starter problems and the badge catalog. Running it twice is safe.
type Seeder struct {
	problems repository.ProblemRepository
	badges   repository.BadgeRepository
}

func NewSeeder(problems repository.ProblemRepository, badges repository.BadgeRepository) *Seeder {
	return &Seeder{problems: problems, badges: badges}
}

func (s *Seeder) Run(ctx context.Context) error {
	if err := s.SeedProblems(ctx, Problems()); err != nil {
		return err
	}
	return s.SeedBadges(ctx, model.DefaultBadges)
}

func (s *Seeder) SeedProblems(ctx context.Context, problems []model.Problem) error {
	logger.Info().Int("count", len(problems)).Msg("Seeding problems")
	for i := range problems {
		p := problems[i]
		if p.Slug == "" {
			p.Slug = slug.Make(p.Title)
		}
		tags := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			tags = append(tags, slug.Make(t))
		}
		p.Tags = tags

		if err := s.problems.Upsert(ctx, &p); err != nil {
			return fmt.Errorf("seed problem %s: %w", p.ID, err)
		}
		logger.Info().Str("id", p.ID).Str("slug", p.Slug).Msg("Problem seeded")
	}
	return nil
}

func (s *Seeder) SeedBadges(ctx context.Context, badges []model.Badge) error {
	logger.Info().Int("count", len(badges)).Msg("Seeding badges")
	for i := range badges {
		b := badges[i]
		if err := s.badges.Upsert(ctx, &b); err != nil {
			return fmt.Errorf("seed badge %s: %w", b.ID, err)
		}
	}
	return nil
}
