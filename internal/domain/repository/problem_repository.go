package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
)

type ProblemRepository interface {
	// Create assigns a p-NNNN id when p.ID is empty.
	Create(ctx context.Context, tx *sql.Tx, p *model.Problem) error
	Upsert(ctx context.Context, p *model.Problem) error
	FindBySlug(ctx context.Context, slug string) (*model.Problem, error)
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	List(ctx context.Context, f model.ProblemFilter) ([]model.Problem, int, error)
	// ListAll returns every problem without statement bodies or test cases.
	ListAll(ctx context.Context) ([]model.Problem, error)
}

const (
	CodeProblemExists  = "PROBLEM_EXISTS"
	CodeProblemIDTaken = "PROBLEM_ID_TAKEN"

	problemPKey = "problems_pkey"
)

// syncProblemIDSeq moves problem_id_seq past every numeric p-NNNN id so generated ids never hit seeded rows.
const syncProblemIDSeq = `SELECT setval('problem_id_seq', GREATEST(
	(SELECT last_value FROM problem_id_seq),
	(SELECT COALESCE(MAX(CAST(SUBSTRING(id FROM 3) AS BIGINT)), 0) FROM problems WHERE id ~ '^p-[0-9]+$')
))`

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `id, slug, title, difficulty, tags, statement, constraints, examples, hints, test_cases, created_at`
const problemSummaryColumns = `id, slug, title, difficulty, tags, created_at`

type problemJSON struct {
	tags, constraints, examples, hints, testCases string
}

func encodeProblem(p *model.Problem) (*problemJSON, error) {
	var out problemJSON
	var err error
	if out.tags, err = toJSON(nonNilStrings(p.Tags)); err != nil {
		return nil, err
	}
	if out.constraints, err = toJSON(nonNilStrings(p.Constraints)); err != nil {
		return nil, err
	}
	if p.Examples == nil {
		p.Examples = []model.Example{}
	}
	if out.examples, err = toJSON(p.Examples); err != nil {
		return nil, err
	}
	if out.hints, err = toJSON(nonNilStrings(p.Hints)); err != nil {
		return nil, err
	}
	if p.TestCases == nil {
		p.TestCases = []model.TestCase{}
	}
	if out.testCases, err = toJSON(p.TestCases); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *pgProblemRepository) Create(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	enc, err := encodeProblem(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create encode: %w", err)
	}

	query := `INSERT INTO problems (id, slug, title, difficulty, tags, statement, constraints, examples, hints, test_cases)
	          VALUES (COALESCE(NULLIF($1, ''), 'p-' || nextval('problem_id_seq')), $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id, created_at`
	err = conn(r.db, tx).QueryRowContext(ctx, query,
		p.ID, p.Slug, p.Title, p.Difficulty, enc.tags, p.Statement, enc.constraints, enc.examples, enc.hints, enc.testCases,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		switch constraint := common.UniqueViolationConstraint(err); {
		case constraint == problemPKey:
			return common.NewCodedError(common.ErrConflict, CodeProblemIDTaken, "A problem with this id already exists")
		case constraint != "":
			return common.NewCodedError(common.ErrConflict, CodeProblemExists, "A problem with this slug already exists")
		}
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) Upsert(ctx context.Context, p *model.Problem) error {
	enc, err := encodeProblem(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Upsert encode: %w", err)
	}

	query := `INSERT INTO problems (id, slug, title, difficulty, tags, statement, constraints, examples, hints, test_cases)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (id) DO UPDATE SET
	            slug = EXCLUDED.slug, title = EXCLUDED.title, difficulty = EXCLUDED.difficulty,
	            tags = EXCLUDED.tags, statement = EXCLUDED.statement, constraints = EXCLUDED.constraints,
	            examples = EXCLUDED.examples, hints = EXCLUDED.hints, test_cases = EXCLUDED.test_cases`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Slug, p.Title, p.Difficulty, enc.tags, p.Statement, enc.constraints, enc.examples, enc.hints, enc.testCases,
	)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, syncProblemIDSeq); err != nil {
		return fmt.Errorf("pgProblemRepository.Upsert sync id sequence: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	p, err := scanProblem(r.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindBySlug: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	p, err := scanProblem(r.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) List(ctx context.Context, f model.ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if f.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, f.Difficulty)
		argID++
	}
	if f.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags @> jsonb_build_array($%d::text)", argID))
		args = append(args, f.Tag)
		argID++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR slug ILIKE $%d)", argID, argID))
		args = append(args, "%"+f.Search+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List count: %w", err)
	}

	query := `SELECT ` + problemSummaryColumns + ` FROM problems` + where +
		fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	problems, err := r.querySummaries(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) ListAll(ctx context.Context) ([]model.Problem, error) {
	problems, err := r.querySummaries(ctx, `SELECT `+problemSummaryColumns+` FROM problems ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListAll: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) querySummaries(ctx context.Context, query string, args ...interface{}) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		var tags []byte
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Difficulty, &tags, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Tags = []string{}
		if err := fromJSON(tags, &p.Tags); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

func scanProblem(row scanner) (*model.Problem, error) {
	p := &model.Problem{}
	var tags, constraints, examples, hints, testCases []byte
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Difficulty, &tags, &p.Statement, &constraints, &examples, &hints, &testCases, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Tags, p.Constraints, p.Hints = []string{}, []string{}, []string{}
	p.Examples, p.TestCases = []model.Example{}, []model.TestCase{}
	for _, f := range []struct {
		raw  []byte
		dest interface{}
	}{
		{tags, &p.Tags}, {constraints, &p.Constraints}, {examples, &p.Examples}, {hints, &p.Hints}, {testCases, &p.TestCases},
	} {
		if err := fromJSON(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("decode problem %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
