package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"algoryth/internal/api/handler"
	"algoryth/internal/app/service"
	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository/memory"
	"algoryth/internal/platform/database"
	"algoryth/internal/platform/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appFixture serves the full router over in-memory repositories and a miniredis job queue.
type appFixture struct {
	*routerFixture
	users *memory.UserRepository
	jobs  *queue.RedisJobQueue
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	f := newRouterFixture(t, Limits{}, nil)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := memory.NewUserRepository()
	profiles := memory.NewProfileRepository()
	problems := memory.NewProblemRepository(model.Problem{
		ID:         "p-1000",
		Slug:       "two-sum",
		Title:      "Two Sum",
		Difficulty: model.DifficultyEasy,
		TestCases:  []model.TestCase{{Input: "1", ExpectedOutput: "1"}},
	})
	subs := memory.NewSubmissionRepository()
	ups := memory.NewUserProblemRepository()
	badges := memory.NewBadgeRepository(model.DefaultBadges)
	jobs := queue.NewRedisJobQueue(rdb, "judge:test")
	tx := database.NoTx{}

	svc := Services{
		Auth:        service.NewAuthService(users, profiles, tx),
		Problems:    service.NewProblemService(problems, subs, ups, tx),
		Execute:     service.NewExecuteService(echoRunner{}, 1000),
		Submissions: service.NewSubmissionService(subs, problems, ups, jobs, tx, 1000),
		Profiles:    service.NewProfileService(users, profiles, ups, tx),
		Progress:    service.NewProgressService(users, problems, subs, ups),
		Leaderboard: service.NewLeaderboardService(profiles, nil, time.Minute),
		Badges:      service.NewBadgeService(badges, profiles, subs),
	}
	f.handler = NewRouter(f.cfg, svc, Limits{}, handler.NewHealthHandler("algoryth", nil))
	return &appFixture{routerFixture: f, users: users, jobs: jobs}
}

type registered struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

func (f *appFixture) register(t *testing.T, name, email string) registered {
	t.Helper()
	rec := f.do(http.MethodPost, "/api/auth/register", `{"name":"`+name+`","email":"`+email+`","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out registered
	decode(t, rec, &out)
	require.NotEmpty(t, out.Token)
	return out
}

func TestRegisterThenVerify(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")
	assert.Equal(t, "ada@example.com", ada.User.Email)

	rec := f.do(http.MethodGet, "/api/auth/verify", "", ada.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Valid bool       `json:"valid"`
		User  model.User `json:"user"`
	}
	decode(t, rec, &body)
	assert.True(t, body.Valid)
	assert.Equal(t, ada.User.ID, body.User.ID)

	rec = f.do(http.MethodPost, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerifyDeletedUser(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")
	delete(f.users.Users, ada.User.ID)

	rec := f.do(http.MethodGet, "/api/auth/verify", "", ada.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSubmissionAccepted(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")

	rec := f.do(http.MethodPost, "/api/submissions", `{"problem_slug":"two-sum","language":"python","code":"print(input())"}`, ada.Token)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var sub model.Submission
	decode(t, rec, &sub)
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Equal(t, ada.User.ID, sub.UserID)

	waiting, err := f.jobs.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), waiting)

	rec = f.do(http.MethodGet, "/api/submissions/"+sub.ID, "", ada.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/submissions", `{"problem_slug":"nope","language":"python","code":"x"}`, ada.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/submissions/abc", "", ada.Token).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/users/not-a-uuid/progress", "", "").Code)
}

func TestProfileRoundTrip(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")

	rec := f.do(http.MethodGet, "/api/user/profile", "", ada.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mine service.ProfileResponse
	decode(t, rec, &mine)
	assert.Equal(t, ada.User.ID, mine.User.ID)
	assert.Nil(t, mine.Profile.Username)

	rec = f.do(http.MethodPut, "/api/user/profile", `{"username":"ada_l","bio":"Engines"}`, ada.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Message string             `json:"message"`
		Profile *model.UserProfile `json:"profile"`
	}
	decode(t, rec, &updated)
	assert.Equal(t, "Profile updated successfully", updated.Message)
	require.NotNil(t, updated.Profile.Username)
	assert.Equal(t, "ada_l", *updated.Profile.Username)

	rec = f.do(http.MethodPut, "/api/user/profile", `{"preferences":{"theme":"neon"}}`, ada.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/users/ada_l", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var public struct {
		Profile model.PublicProfile `json:"profile"`
	}
	decode(t, rec, &public)
	assert.Equal(t, ada.User.ID, public.Profile.UserID)
	assert.Equal(t, "Engines", public.Profile.Bio)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/users/nobody", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/user/profile", "", "").Code)
}

func TestUsernameTakenIgnoresCase(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	require.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/user/profile", `{"username":"ada"}`, ada.Token).Code)
	rec := f.do(http.MethodPut, "/api/user/profile", `{"username":"ADA"}`, bob.Token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp common.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, common.CodeUsernameTaken, resp.Code)
}

func TestLeaderboardRoute(t *testing.T) {
	f := newAppFixture(t)
	f.register(t, "Ada", "ada@example.com")
	f.register(t, "Bob", "bob@example.com")

	rec := f.do(http.MethodGet, "/api/leaderboard?limit=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var board service.LeaderboardResponse
	decode(t, rec, &board)
	assert.Len(t, board.Leaderboard, 1)
	assert.Equal(t, 2, board.Pagination.Total)
	assert.Equal(t, 1, board.Leaderboard[0].Position)
}

func TestBadgeRoutes(t *testing.T) {
	f := newAppFixture(t)
	ada := f.register(t, "Ada", "ada@example.com")

	rec := f.do(http.MethodGet, "/api/badges", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog struct {
		Badges []model.Badge `json:"badges"`
		Total  int           `json:"total"`
	}
	decode(t, rec, &catalog)
	assert.Equal(t, len(model.DefaultBadges), catalog.Total)

	rec = f.do(http.MethodGet, "/api/badges/user", "", ada.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine service.UserBadgesResponse
	decode(t, rec, &mine)
	assert.Zero(t, mine.Total)

	rec = f.do(http.MethodGet, "/api/badges/user/progress", "", ada.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var progress service.BadgeProgressResponse
	decode(t, rec, &progress)
	assert.Equal(t, len(model.DefaultBadges), progress.TotalBadges)
	assert.Zero(t, progress.EarnedCount)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/badges/user", "", "").Code)
}
