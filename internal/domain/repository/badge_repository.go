package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"algoryth/internal/domain/model"
)

type BadgeRepository interface {
	Upsert(ctx context.Context, b *model.Badge) error
	ListActive(ctx context.Context) ([]model.Badge, error)
	// ListByUser returns earned badges newest first, with details.
	ListByUser(ctx context.Context, userID string) ([]model.UserBadge, error)
	// Award reports false when the user already had the badge.
	Award(ctx context.Context, tx *sql.Tx, userID, badgeID string, at time.Time) (bool, error)
}

type pgBadgeRepository struct {
	db *sql.DB
}

func NewPgBadgeRepository(db *sql.DB) BadgeRepository {
	return &pgBadgeRepository{db: db}
}

func (r *pgBadgeRepository) Upsert(ctx context.Context, b *model.Badge) error {
	query := `INSERT INTO badges (id, name, description, icon, category, condition, threshold, is_active, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (id) DO UPDATE SET
	            name = EXCLUDED.name, description = EXCLUDED.description, icon = EXCLUDED.icon,
	            category = EXCLUDED.category, condition = EXCLUDED.condition, threshold = EXCLUDED.threshold,
	            is_active = EXCLUDED.is_active, sort_order = EXCLUDED.sort_order`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Name, b.Description, b.Icon, b.Category, b.Condition, b.Threshold, b.IsActive, b.SortOrder)
	if err != nil {
		return fmt.Errorf("pgBadgeRepository.Upsert: %w", err)
	}
	return nil
}

func (r *pgBadgeRepository) ListActive(ctx context.Context) ([]model.Badge, error) {
	query := `SELECT id, name, description, icon, category, condition, threshold, is_active, sort_order
	          FROM badges WHERE is_active = TRUE ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgBadgeRepository.ListActive: %w", err)
	}
	defer rows.Close()

	out := []model.Badge{}
	for rows.Next() {
		var b model.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category, &b.Condition, &b.Threshold, &b.IsActive, &b.SortOrder); err != nil {
			return nil, fmt.Errorf("pgBadgeRepository.ListActive scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgBadgeRepository) ListByUser(ctx context.Context, userID string) ([]model.UserBadge, error) {
	query := `SELECT ub.user_id, ub.badge_id, ub.awarded_at,
	                 b.id, b.name, b.description, b.icon, b.category, b.condition, b.threshold, b.is_active, b.sort_order
	          FROM user_badges ub
	          JOIN badges b ON b.id = ub.badge_id
	          WHERE ub.user_id = $1
	          ORDER BY ub.awarded_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgBadgeRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	out := []model.UserBadge{}
	for rows.Next() {
		var ub model.UserBadge
		b := &model.Badge{}
		if err := rows.Scan(&ub.UserID, &ub.BadgeID, &ub.AwardedAt,
			&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category, &b.Condition, &b.Threshold, &b.IsActive, &b.SortOrder); err != nil {
			return nil, fmt.Errorf("pgBadgeRepository.ListByUser scan: %w", err)
		}
		ub.Badge = b
		out = append(out, ub)
	}
	return out, rows.Err()
}

func (r *pgBadgeRepository) Award(ctx context.Context, tx *sql.Tx, userID, badgeID string, at time.Time) (bool, error) {
	query := `INSERT INTO user_badges (user_id, badge_id, awarded_at) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, badge_id) DO NOTHING`
	res, err := conn(r.db, tx).ExecContext(ctx, query, userID, badgeID, at)
	if err != nil {
		return false, fmt.Errorf("pgBadgeRepository.Award: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgBadgeRepository.Award rows: %w", err)
	}
	return n == 1, nil
}
