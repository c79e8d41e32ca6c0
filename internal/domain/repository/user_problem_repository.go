package repository

import (
	"context"
	"database/sql"
	"fmt"

	"algoryth/internal/domain/model"
)

type UserProblemRepository interface {
	// MarkAttempted bumps attempts. A Solved row stays Solved.
	MarkAttempted(ctx context.Context, tx *sql.Tx, up *model.UserProblem) error
	// MarkSolved sets Solved; solved_at is only written the first time.
	MarkSolved(ctx context.Context, tx *sql.Tx, up *model.UserProblem) error
	ListByUser(ctx context.Context, userID string) ([]model.UserProblem, error)
}

type pgUserProblemRepository struct {
	db *sql.DB
}

func NewPgUserProblemRepository(db *sql.DB) UserProblemRepository {
	return &pgUserProblemRepository{db: db}
}

func (r *pgUserProblemRepository) MarkAttempted(ctx context.Context, tx *sql.Tx, up *model.UserProblem) error {
	query := `INSERT INTO user_problems (user_id, problem_id, problem_slug, problem_title, status, attempts, last_submission_at)
	          VALUES ($1, $2, $3, $4, 'Attempted', 1, $5)
	          ON CONFLICT (user_id, problem_id) DO UPDATE SET
	            attempts = user_problems.attempts + 1,
	            last_submission_at = EXCLUDED.last_submission_at,
	            status = CASE WHEN user_problems.status = 'Solved' THEN 'Solved' ELSE 'Attempted' END`
	_, err := conn(r.db, tx).ExecContext(ctx, query, up.UserID, up.ProblemID, up.ProblemSlug, up.ProblemTitle, up.LastSubmissionAt)
	if err != nil {
		return fmt.Errorf("pgUserProblemRepository.MarkAttempted: %w", err)
	}
	return nil
}

func (r *pgUserProblemRepository) MarkSolved(ctx context.Context, tx *sql.Tx, up *model.UserProblem) error {
	query := `INSERT INTO user_problems (user_id, problem_id, problem_slug, problem_title, status, attempts, last_submission_at, solved_at)
	          VALUES ($1, $2, $3, $4, 'Solved', 1, $5, $5)
	          ON CONFLICT (user_id, problem_id) DO UPDATE SET
	            status = 'Solved',
	            solved_at = COALESCE(user_problems.solved_at, EXCLUDED.solved_at)`
	_, err := conn(r.db, tx).ExecContext(ctx, query, up.UserID, up.ProblemID, up.ProblemSlug, up.ProblemTitle, up.SolvedAt)
	if err != nil {
		return fmt.Errorf("pgUserProblemRepository.MarkSolved: %w", err)
	}
	return nil
}

func (r *pgUserProblemRepository) ListByUser(ctx context.Context, userID string) ([]model.UserProblem, error) {
	query := `SELECT user_id, problem_id, problem_slug, problem_title, status, attempts, last_submission_at, solved_at
	          FROM user_problems WHERE user_id = $1 ORDER BY problem_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgUserProblemRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	out := []model.UserProblem{}
	for rows.Next() {
		var up model.UserProblem
		var last, solved sql.NullTime
		if err := rows.Scan(&up.UserID, &up.ProblemID, &up.ProblemSlug, &up.ProblemTitle, &up.Status, &up.Attempts, &last, &solved); err != nil {
			return nil, fmt.Errorf("pgUserProblemRepository.ListByUser scan: %w", err)
		}
		if last.Valid {
			t := last.Time
			up.LastSubmissionAt = &t
		}
		if solved.Valid {
			t := solved.Time
			up.SolvedAt = &t
		}
		out = append(out, up)
	}
	return out, rows.Err()
}
