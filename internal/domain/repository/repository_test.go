package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestUserCreateMapsUniqueViolationToConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), nil, &model.User{ID: "u1", Email: "a@b.co"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUserFindByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)
	now := time.Now()

	cols := []string{"id", "name", "email", "hashed_password", "email_verified", "is_active", "role", "last_login", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "Ada", "ada@example.com", "hash", false, true, "user", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Nil(t, u.LastLogin)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProblemFindBySlugDecodesJSONColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	cols := []string{"id", "slug", "title", "difficulty", "tags", "statement", "constraints", "examples", "hints", "test_cases", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM problems WHERE slug = $1")).
		WithArgs("two-sum").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"p-1000", "two-sum", "Two Sum", "Easy",
			[]byte(`["arrays","hash-map"]`), "Given nums...", []byte(`["2 <= n"]`),
			[]byte(`[{"input":"nums = [2,7]","output":"[0,1]"}]`), []byte(`["Use a map"]`),
			[]byte(`[{"input":"2 7\n9","expected_output":"0 1","is_hidden":true}]`), time.Now(),
		))

	p, err := repo.FindBySlug(context.Background(), "two-sum")
	require.NoError(t, err)
	assert.Equal(t, []string{"arrays", "hash-map"}, p.Tags)
	assert.Equal(t, "[0,1]", p.Examples[0].Output)
	assert.Equal(t, []string{"Use a map"}, p.Hints)
	require.Len(t, p.TestCases, 1)
	assert.True(t, p.TestCases[0].IsHidden)
}

func TestProblemListBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM problems WHERE difficulty = $1 AND tags @> jsonb_build_array($2::text) AND (title ILIKE $3 OR slug ILIKE $3)")).
		WithArgs(model.DifficultyEasy, "stack", "%paren%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC LIMIT $4 OFFSET $5")).
		WithArgs(model.DifficultyEasy, "stack", "%paren%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title", "difficulty", "tags", "created_at"}).
			AddRow("p-1001", "valid-parentheses", "Valid Parentheses", "Easy", []byte(`["stack"]`), time.Now()))

	problems, total, err := repo.List(context.Background(), model.ProblemFilter{
		Difficulty: model.DifficultyEasy, Tag: "stack", Search: "paren", Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, problems, 1)
	assert.Equal(t, "valid-parentheses", problems[0].Slug)
}

func TestProblemCreateAssignsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("nextval('problem_id_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-1003", time.Now()))

	p := &model.Problem{Slug: "climbing-stairs", Title: "Climbing Stairs", Difficulty: model.DifficultyEasy}
	require.NoError(t, repo.Create(context.Background(), nil, p))
	assert.Equal(t, "p-1003", p.ID)
	assert.NotNil(t, p.TestCases)
}

func TestProblemCreateTellsIDFromSlugConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectQuery("INSERT INTO problems").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "problems_pkey"})
	mock.ExpectQuery("INSERT INTO problems").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "problems_slug_key"})

	var coded *common.CodedError
	err := repo.Create(context.Background(), nil, &model.Problem{Slug: "fresh-slug"})
	assert.ErrorIs(t, err, common.ErrConflict)
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeProblemIDTaken, coded.Code)

	err = repo.Create(context.Background(), nil, &model.Problem{Slug: "two-sum"})
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeProblemExists, coded.Code)
}

func TestProblemUpsertAdvancesIDSequence(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectExec("INSERT INTO problems").WithArgs(
		"p-2000", "max-subarray", "Maximum Subarray", "Medium",
		sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
	).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT setval('problem_id_seq'")).WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &model.Problem{ID: "p-2000", Slug: "max-subarray", Title: "Maximum Subarray", Difficulty: model.DifficultyMedium})
	require.NoError(t, err)
}

func TestSubmissionListFiltersAndPaginates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions WHERE user_id = $1 AND problem_slug = $2 AND status = $3")).
		WithArgs("u1", "two-sum", model.StatusAccepted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	cols := []string{"id", "user_id", "problem_id", "problem_slug", "problem_title", "difficulty", "language", "code", "status",
		"test_cases_passed", "total_test_cases", "execution_time_ms", "memory_kb", "error_message", "submitted_at", "judged_at"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY submitted_at DESC LIMIT $4 OFFSET $5")).
		WithArgs("u1", "two-sum", model.StatusAccepted, 2, 2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "u1", "p-1000", "two-sum", "Two Sum", "Easy", "python", "print()", "Accepted", 3, 3, 12, 1024, "", now, now))

	subs, total, err := repo.List(context.Background(), model.SubmissionFilter{
		UserID: "u1", ProblemSlug: "two-sum", Status: model.StatusAccepted, Limit: 2, Offset: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, subs, 1)
	assert.NotNil(t, subs[0].JudgedAt)
}

func TestSubmissionDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectExec("DELETE FROM submissions").WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), common.ErrNotFound)
}

func TestLeaderboardOrdersByChosenColumn(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProfileRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM user_profiles")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	cols := []string{"id", "user_id", "username", "bio", "avatar", "rating", "solved_easy", "solved_medium", "solved_hard",
		"total_submissions", "accepted_submissions", "bookmarked_problems", "preferences", "social_links",
		"last_active", "created_at", "updated_at", "name"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY (p.solved_easy + p.solved_medium + p.solved_hard) DESC, p.accepted_submissions DESC, p.created_at ASC")).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"pr1", "u1", nil, "", "", 1500, 2, 1, 0, 4, 3,
			[]byte(`[]`), []byte(`{"theme":"dark"}`), []byte(`{}`), now, now, now, "Ada",
		))

	rows, total, err := repo.Leaderboard(context.Background(), model.LeaderboardSortSolved, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].Name)
	assert.Equal(t, 3, rows[0].Profile.Solved.Total)
	assert.Equal(t, 75, rows[0].Profile.Submissions.AcceptanceRate)
	assert.Equal(t, "dark", rows[0].Profile.Preferences.Theme)
	assert.Equal(t, 14, rows[0].Profile.Preferences.EditorFontSize, "missing preference keys keep defaults")
	assert.Nil(t, rows[0].Profile.Username)
}

func TestProfileUpdateUsernameTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProfileRepository(db)

	mock.ExpectExec("UPDATE user_profiles SET").WillReturnError(&pgconn.PgError{Code: "23505"})

	name := "ada"
	err := repo.Update(context.Background(), nil, &model.UserProfile{UserID: "u1", Username: &name})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.EqualError(t, err, "Username already taken")
}

func TestBadgeAwardIsIdempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgBadgeRepository(db)
	at := time.Now()

	mock.ExpectExec("INSERT INTO user_badges").WithArgs("u1", "first-blood", at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_badges").WithArgs("u1", "first-blood", at).WillReturnResult(sqlmock.NewResult(0, 0))

	awarded, err := repo.Award(context.Background(), nil, "u1", "first-blood", at)
	require.NoError(t, err)
	assert.True(t, awarded)

	awarded, err = repo.Award(context.Background(), nil, "u1", "first-blood", at)
	require.NoError(t, err)
	assert.False(t, awarded)
}

func TestUserProblemMarkSolvedKeepsFirstSolvedAt(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserProblemRepository(db)
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("solved_at = COALESCE(user_problems.solved_at, EXCLUDED.solved_at)")).
		WithArgs("u1", "p-1000", "two-sum", "Two Sum", &at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkSolved(context.Background(), nil, &model.UserProblem{
		UserID: "u1", ProblemID: "p-1000", ProblemSlug: "two-sum", ProblemTitle: "Two Sum", SolvedAt: &at,
	})
	require.NoError(t, err)
}
