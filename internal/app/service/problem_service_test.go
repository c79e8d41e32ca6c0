package service

import (
	"context"
	"testing"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProblemFixture() (*ProblemService, *memProblemRepo, *memSubmissionRepo, *memUserProblemRepo) {
	problems := newMemProblemRepo(twoSum(), maxSubarray())
	subs := newMemSubmissionRepo(
		model.Submission{ID: "s1", UserID: "u1", ProblemID: "p-1000", Status: model.StatusAccepted},
		model.Submission{ID: "s2", UserID: "u2", ProblemID: "p-1000", Status: model.StatusWrongAnswer},
		model.Submission{ID: "s3", UserID: "u2", ProblemID: "p-1000", Status: model.StatusWrongAnswer},
		model.Submission{ID: "s4", UserID: "u2", ProblemID: "p-1000", Status: model.StatusPending},
	)
	ups := newMemUserProblemRepo(
		model.UserProblem{UserID: "u1", ProblemID: "p-1000", ProblemSlug: "two-sum", Status: model.ProblemSolved},
		model.UserProblem{UserID: "u1", ProblemID: "p-2000", ProblemSlug: "max-subarray", Status: model.ProblemAttempted},
	)
	return NewProblemService(problems, subs, ups, database.NoTx{}), problems, subs, ups
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("two-sum"))
	assert.NoError(t, ValidateSlug("a1-b2"))

	for _, bad := range []string{"", "Two-Sum", "two_sum", "two sum", "../etc", string(make([]byte, 101))} {
		err := ValidateSlug(bad)
		assert.ErrorIs(t, err, common.ErrValidation, "slug %q", bad)
		assert.Equal(t, common.CodeInvalidSlug, codeOf(err))
	}
}

func TestListProblems(t *testing.T) {
	svc, _, _, _ := newProblemFixture()
	ctx := context.Background()

	resp, err := svc.ListProblems(ctx, ListProblemsQuery{}, "u1")
	require.NoError(t, err)
	require.Len(t, resp.Problems, 2)
	assert.Equal(t, 2, resp.Pagination.Total)
	assert.Equal(t, 20, resp.Pagination.PageSize)

	first := resp.Problems[0]
	assert.Equal(t, "two-sum", first.Slug)
	// Pending submissions are not counted.
	assert.Equal(t, 3, first.Submissions)
	assert.InDelta(t, 33.3, first.AcceptanceRate, 0.001)
	assert.Equal(t, model.ProblemSolved, first.Status)
	assert.Equal(t, model.ProblemAttempted, resp.Problems[1].Status)
}

func TestListProblemsFilters(t *testing.T) {
	svc, _, _, _ := newProblemFixture()
	ctx := context.Background()

	resp, err := svc.ListProblems(ctx, ListProblemsQuery{Difficulty: "Medium"}, "")
	require.NoError(t, err)
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, "max-subarray", resp.Problems[0].Slug)
	assert.Empty(t, resp.Problems[0].Status)

	resp, err = svc.ListProblems(ctx, ListProblemsQuery{Tag: "hash-table"}, "")
	require.NoError(t, err)
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, "two-sum", resp.Problems[0].Slug)

	resp, err = svc.ListProblems(ctx, ListProblemsQuery{Search: "maximum"}, "")
	require.NoError(t, err)
	require.Len(t, resp.Problems, 1)

	resp, err = svc.ListProblems(ctx, ListProblemsQuery{Page: 2, PageSize: 1}, "")
	require.NoError(t, err)
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, "max-subarray", resp.Problems[0].Slug)
	assert.Equal(t, 2, resp.Pagination.Pages)

	_, err = svc.ListProblems(ctx, ListProblemsQuery{Difficulty: "Impossible"}, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetProblemHidesHiddenTests(t *testing.T) {
	svc, _, _, _ := newProblemFixture()

	detail, err := svc.GetProblem(context.Background(), "two-sum", "u1")
	require.NoError(t, err)
	assert.Len(t, detail.SampleTests, 2)
	for _, tc := range detail.SampleTests {
		assert.False(t, tc.IsHidden)
	}
	assert.True(t, detail.HasHints)
	assert.Equal(t, model.ProblemSolved, detail.Status)

	_, err = svc.GetProblem(context.Background(), "no-such-problem", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, common.CodeProblemNotFound, codeOf(err))

	_, err = svc.GetProblem(context.Background(), "Bad Slug", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetHints(t *testing.T) {
	svc, _, _, _ := newProblemFixture()

	hints, err := svc.GetHints(context.Background(), "two-sum")
	require.NoError(t, err)
	assert.Equal(t, 1, hints.Total)
	assert.Equal(t, "p-1000", hints.ProblemID)

	_, err = svc.GetHints(context.Background(), "max-subarray")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateProblem(t *testing.T) {
	svc, problems, _, _ := newProblemFixture()
	ctx := context.Background()

	p, err := svc.CreateProblem(ctx, CreateProblemRequest{
		Title:      "Climbing Stairs",
		Difficulty: model.DifficultyEasy,
		Tags:       []string{"Dynamic Programming", "Math"},
		Statement:  "Count the ways.",
		TestCases:  []model.TestCase{{Input: "2", ExpectedOutput: "2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "climbing-stairs", p.Slug)
	assert.Equal(t, []string{"dynamic-programming", "math"}, p.Tags)
	assert.NotEmpty(t, p.ID)

	stored, err := problems.FindBySlug(ctx, "climbing-stairs")
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)

	_, err = svc.CreateProblem(ctx, CreateProblemRequest{
		Title:      "Climbing Stairs",
		Difficulty: model.DifficultyEasy,
		Statement:  "Again.",
		TestCases:  []model.TestCase{{Input: "1", ExpectedOutput: "1"}},
	})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = svc.CreateProblem(ctx, CreateProblemRequest{Title: "No Tests", Difficulty: model.DifficultyEasy, Statement: "x"})
	assert.Equal(t, common.CodeMissingRequiredFields, codeOf(err))

	_, err = svc.CreateProblem(ctx, CreateProblemRequest{
		Title:      "Bad",
		Difficulty: "Legendary",
		Statement:  "x",
		TestCases:  []model.TestCase{{Input: "1", ExpectedOutput: "1"}},
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateProblemKeepsIDConflictDistinct(t *testing.T) {
	svc, problems, _, _ := newProblemFixture()
	problems.CreateErr = common.NewCodedError(common.ErrConflict, repository.CodeProblemIDTaken, "A problem with this id already exists")

	_, err := svc.CreateProblem(context.Background(), CreateProblemRequest{
		Title:      "Climbing Stairs",
		Difficulty: model.DifficultyEasy,
		Statement:  "Count the ways.",
		TestCases:  []model.TestCase{{Input: "2", ExpectedOutput: "2"}},
	})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, repository.CodeProblemIDTaken, codeOf(err))
}
