package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	svc   *SubmissionService
	subs  *memSubmissionRepo
	ups   *memUserProblemRepo
	queue *fakeJobQueue
}

func newSubmissionFixture() *submissionFixture {
	noTests := model.Problem{ID: "p-3000", Slug: "empty", Title: "Empty", Difficulty: model.DifficultyHard}
	f := &submissionFixture{
		subs:  newMemSubmissionRepo(),
		ups:   newMemUserProblemRepo(),
		queue: &fakeJobQueue{},
	}
	f.svc = NewSubmissionService(f.subs, newMemProblemRepo(twoSum(), noTests), f.ups, f.queue, database.NoTx{}, 1000)
	f.svc.now = fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return f
}

func TestCreateSubmissionQueuesJob(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	sub, err := f.svc.CreateSubmission(ctx, "u1", CreateSubmissionRequest{ProblemSlug: "two-sum", Language: "Python", Code: "print(1)"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Equal(t, "python", sub.Language)
	assert.Equal(t, "p-1000", sub.ProblemID)
	assert.Equal(t, 3, sub.TotalTestCases)

	stored, err := f.subs.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, sub.ID, f.queue.jobs[0].SubmissionID)
	assert.Zero(t, f.queue.jobs[0].Attempts)

	up, ok := f.ups.Get("u1", "p-1000")
	require.True(t, ok)
	assert.Equal(t, model.ProblemAttempted, up.Status)
	assert.Equal(t, 1, up.Attempts)
}

func TestCreateSubmissionDoesNotDowngradeSolved(t *testing.T) {
	f := newSubmissionFixture()
	f.ups.Rows["u1/p-1000"] = model.UserProblem{UserID: "u1", ProblemID: "p-1000", Status: model.ProblemSolved, Attempts: 2}

	_, err := f.svc.CreateSubmission(context.Background(), "u1", CreateSubmissionRequest{ProblemSlug: "two-sum", Language: "python", Code: "x"})
	require.NoError(t, err)

	up, _ := f.ups.Get("u1", "p-1000")
	assert.Equal(t, model.ProblemSolved, up.Status)
	assert.Equal(t, 3, up.Attempts)
}

func TestCreateSubmissionRejects(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateSubmissionRequest
		kind error
		code string
	}{
		{"empty code", CreateSubmissionRequest{ProblemSlug: "two-sum", Language: "python", Code: "  "}, common.ErrValidation, common.CodeMissingRequiredFields},
		{"unknown problem", CreateSubmissionRequest{ProblemSlug: "nope", Language: "python", Code: "x"}, common.ErrNotFound, common.CodeProblemNotFound},
		{"problem without tests", CreateSubmissionRequest{ProblemSlug: "empty", Language: "python", Code: "x"}, common.ErrNotFound, common.CodeProblemNotFound},
		{"unknown language", CreateSubmissionRequest{ProblemSlug: "two-sum", Language: "cobol", Code: "x"}, common.ErrValidation, common.CodeUnsupportedLanguage},
		{"execute-only language", CreateSubmissionRequest{ProblemSlug: "two-sum", Language: "ruby", Code: "x"}, common.ErrValidation, common.CodeUnsupportedLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateSubmission(ctx, "u1", tt.req)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.code, codeOf(err))
		})
	}
	assert.Empty(t, f.queue.jobs)
}

func TestCreateSubmissionQueueDown(t *testing.T) {
	f := newSubmissionFixture()
	f.queue.err = errors.New("redis: connection refused")

	_, err := f.svc.CreateSubmission(context.Background(), "u1", CreateSubmissionRequest{ProblemSlug: "two-sum", Language: "python", Code: "x"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)

	require.Len(t, f.subs.Subs, 1)
	for _, sub := range f.subs.Subs {
		assert.Equal(t, model.StatusSystemError, sub.Status, "unqueued submission must not stay Pending")
		assert.Equal(t, MsgExecutorUnavailable, sub.ErrorMessage)
		assert.NotNil(t, sub.JudgedAt)
	}
}

const ownedSub = "9a7d1f0e-5c33-4f6e-8b1a-2f4d6c8e0a11"

func TestGetAndDeleteSubmissionOwnerOnly(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	require.NoError(t, f.subs.Create(ctx, nil, &model.Submission{ID: ownedSub, UserID: "owner", Status: model.StatusAccepted}))

	_, err := f.svc.GetSubmission(ctx, "intruder", ownedSub)
	assert.ErrorIs(t, err, common.ErrForbidden)
	err = f.svc.DeleteSubmission(ctx, "intruder", ownedSub)
	assert.ErrorIs(t, err, common.ErrForbidden)

	sub, err := f.svc.GetSubmission(ctx, "owner", ownedSub)
	require.NoError(t, err)
	assert.Equal(t, ownedSub, sub.ID)

	require.NoError(t, f.svc.DeleteSubmission(ctx, "owner", ownedSub))
	_, err = f.svc.GetSubmission(ctx, "owner", ownedSub)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetSubmissionMalformedID(t *testing.T) {
	f := newSubmissionFixture()

	_, err := f.svc.GetSubmission(context.Background(), "owner", "abc")
	assert.ErrorIs(t, err, common.ErrNotFound)
	err = f.svc.DeleteSubmission(context.Background(), "owner", "abc")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListMineSubmissions(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, st := range []model.SubmissionStatus{model.StatusAccepted, model.StatusWrongAnswer, model.StatusAccepted} {
		require.NoError(t, f.subs.Create(ctx, nil, &model.Submission{
			ID: string(rune('a' + i)), UserID: "u1", ProblemSlug: "two-sum", Status: st, SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, f.subs.Create(ctx, nil, &model.Submission{ID: "other", UserID: "u2", Status: model.StatusAccepted}))

	resp, err := f.svc.ListMine(ctx, "u1", ListSubmissionsQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Submissions, 3)
	assert.Equal(t, "c", resp.Submissions[0].ID, "newest first")

	resp, err = f.svc.ListMine(ctx, "u1", ListSubmissionsQuery{Status: "Accepted"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Pagination.Total)

	_, err = f.svc.ListMine(ctx, "u1", ListSubmissionsQuery{Status: "Maybe"})
	assert.ErrorIs(t, err, common.ErrValidation)
}
