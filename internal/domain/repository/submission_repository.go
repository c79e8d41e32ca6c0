package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f model.SubmissionFilter) ([]model.Submission, int, error)
	UpdateVerdict(ctx context.Context, tx *sql.Tx, sub *model.Submission) error

	// Aggregates over judged submissions (not Pending, not System Error).
	CountsForUser(ctx context.Context, tx *sql.Tx, userID string) (total, accepted int, err error)
	ProblemStats(ctx context.Context) (map[string]model.ProblemStats, error)
	DailyCounts(ctx context.Context, userID string, since time.Time) ([]model.DailyCount, error)

	// Inputs for badge evaluation.
	RecentStatuses(ctx context.Context, userID string, limit int) ([]model.SubmissionStatus, error)
	CountFailed(ctx context.Context, userID, problemID string) (int, error)
	FastestAccepted(ctx context.Context, problemID string) (int, bool, error)
	DistinctAcceptedLanguages(ctx context.Context, userID string) (int, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, user_id, problem_id, problem_slug, problem_title, difficulty, language, code, status,
	test_cases_passed, total_test_cases, execution_time_ms, memory_kb, error_message, submitted_at, judged_at`

const judgedClause = `status NOT IN ('Pending', 'System Error')`

func (r *pgSubmissionRepository) Create(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, problem_slug, problem_title, difficulty, language, code, status, total_test_cases, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := conn(r.db, tx).ExecContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.ProblemSlug, s.ProblemTitle, s.Difficulty, s.Language, s.Code, s.Status,
		s.TotalTestCases, s.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	s, err := scanSubmission(r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) List(ctx context.Context, f model.SubmissionFilter) ([]model.Submission, int, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{f.UserID}
	argID := 2

	if f.ProblemSlug != "" {
		conditions = append(conditions, fmt.Sprintf("problem_slug = $%d", argID))
		args = append(args, f.ProblemSlug)
		argID++
	}
	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, f.Status)
		argID++
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.List count: %w", err)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions` + where +
		fmt.Sprintf(" ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.List query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgSubmissionRepository.List scan: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.List rows.Err: %w", err)
	}
	return subs, total, nil
}

func (r *pgSubmissionRepository) UpdateVerdict(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `UPDATE submissions SET
	            status = $1, test_cases_passed = $2, total_test_cases = $3, execution_time_ms = $4,
	            memory_kb = $5, error_message = $6, judged_at = $7
	          WHERE id = $8`
	res, err := conn(r.db, tx).ExecContext(ctx, query,
		s.Status, s.TestCasesPassed, s.TotalTestCases, s.ExecutionTimeMs, s.MemoryKb, s.ErrorMessage, s.JudgedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateVerdict: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) CountsForUser(ctx context.Context, tx *sql.Tx, userID string) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Accepted')
	          FROM submissions WHERE user_id = $1 AND ` + judgedClause
	var total, accepted int
	if err := conn(r.db, tx).QueryRowContext(ctx, query, userID).Scan(&total, &accepted); err != nil {
		return 0, 0, fmt.Errorf("pgSubmissionRepository.CountsForUser: %w", err)
	}
	return total, accepted, nil
}

func (r *pgSubmissionRepository) ProblemStats(ctx context.Context) (map[string]model.ProblemStats, error) {
	query := `SELECT problem_id, COUNT(*), COUNT(*) FILTER (WHERE status = 'Accepted')
	          FROM submissions WHERE ` + judgedClause + ` GROUP BY problem_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ProblemStats: %w", err)
	}
	defer rows.Close()

	stats := map[string]model.ProblemStats{}
	for rows.Next() {
		var id string
		var st model.ProblemStats
		if err := rows.Scan(&id, &st.Submissions, &st.Accepted); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ProblemStats scan: %w", err)
		}
		stats[id] = st
	}
	return stats, rows.Err()
}

func (r *pgSubmissionRepository) DailyCounts(ctx context.Context, userID string, since time.Time) ([]model.DailyCount, error) {
	query := `SELECT to_char(submitted_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
	          FROM submissions
	          WHERE user_id = $1 AND submitted_at >= $2
	          GROUP BY day ORDER BY day ASC`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.DailyCounts: %w", err)
	}
	defer rows.Close()

	out := []model.DailyCount{}
	for rows.Next() {
		var dc model.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.DailyCounts scan: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *pgSubmissionRepository) RecentStatuses(ctx context.Context, userID string, limit int) ([]model.SubmissionStatus, error) {
	query := `SELECT status FROM submissions WHERE user_id = $1 AND ` + judgedClause + `
	          ORDER BY submitted_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.RecentStatuses: %w", err)
	}
	defer rows.Close()

	var out []model.SubmissionStatus
	for rows.Next() {
		var st model.SubmissionStatus
		if err := rows.Scan(&st); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.RecentStatuses scan: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *pgSubmissionRepository) CountFailed(ctx context.Context, userID, problemID string) (int, error) {
	query := `SELECT COUNT(*) FROM submissions
	          WHERE user_id = $1 AND problem_id = $2 AND status <> 'Accepted' AND ` + judgedClause
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, problemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.CountFailed: %w", err)
	}
	return n, nil
}

func (r *pgSubmissionRepository) FastestAccepted(ctx context.Context, problemID string) (int, bool, error) {
	var best sql.NullInt64
	query := `SELECT MIN(execution_time_ms) FROM submissions WHERE problem_id = $1 AND status = 'Accepted'`
	if err := r.db.QueryRowContext(ctx, query, problemID).Scan(&best); err != nil {
		return 0, false, fmt.Errorf("pgSubmissionRepository.FastestAccepted: %w", err)
	}
	return int(best.Int64), best.Valid, nil
}

func (r *pgSubmissionRepository) DistinctAcceptedLanguages(ctx context.Context, userID string) (int, error) {
	var n int
	query := `SELECT COUNT(DISTINCT language) FROM submissions WHERE user_id = $1 AND status = 'Accepted'`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.DistinctAcceptedLanguages: %w", err)
	}
	return n, nil
}

func scanSubmission(row scanner) (*model.Submission, error) {
	s := &model.Submission{}
	var judgedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.UserID, &s.ProblemID, &s.ProblemSlug, &s.ProblemTitle, &s.Difficulty, &s.Language, &s.Code, &s.Status,
		&s.TestCasesPassed, &s.TotalTestCases, &s.ExecutionTimeMs, &s.MemoryKb, &s.ErrorMessage, &s.SubmittedAt, &judgedAt,
	)
	if err != nil {
		return nil, err
	}
	if judgedAt.Valid {
		t := judgedAt.Time
		s.JudgedAt = &t
	}
	return s, nil
}
