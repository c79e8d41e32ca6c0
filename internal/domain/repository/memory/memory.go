// Package memory holds map-backed repositories for tests and local runs without Postgres.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
)

const dayLayout = "2006-01-02"

var (
	_ repository.UserRepository        = (*UserRepository)(nil)
	_ repository.ProfileRepository     = (*ProfileRepository)(nil)
	_ repository.ProblemRepository     = (*ProblemRepository)(nil)
	_ repository.SubmissionRepository  = (*SubmissionRepository)(nil)
	_ repository.UserProblemRepository = (*UserProblemRepository)(nil)
	_ repository.BadgeRepository       = (*BadgeRepository)(nil)
)

type UserRepository struct {
	mu    sync.RWMutex
	Users map[string]model.User
}

func NewUserRepository(users ...model.User) *UserRepository {
	r := &UserRepository{Users: map[string]model.User{}}
	for _, u := range users {
		r.Users[u.ID] = u
	}
	return r
}

func (r *UserRepository) Create(_ context.Context, _ *sql.Tx, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Users {
		if existing.Email == u.Email {
			return common.ErrConflict
		}
	}
	r.Users[u.ID] = *u
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.Users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.LastLogin = &at
	r.Users[id] = u
	return nil
}

type ProfileRepository struct {
	mu       sync.RWMutex
	Profiles map[string]model.UserProfile // by user id
	Names    map[string]string            // user id -> display name, for leaderboard rows
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{Profiles: map[string]model.UserProfile{}, Names: map[string]string{}}
}

func (r *ProfileRepository) Create(_ context.Context, _ *sql.Tx, p *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Profiles[p.UserID]; ok {
		return common.ErrConflict
	}
	r.Profiles[p.UserID] = *p
	return nil
}

func (r *ProfileRepository) FindByUserID(_ context.Context, userID string) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.Profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *ProfileRepository) FindByUsername(_ context.Context, username string) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.Profiles {
		if p.Username != nil && strings.EqualFold(*p.Username, username) {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *ProfileRepository) Update(_ context.Context, _ *sql.Tx, p *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Profiles[p.UserID]; !ok {
		return common.ErrNotFound
	}
	if p.Username != nil {
		for uid, other := range r.Profiles {
			if uid != p.UserID && other.Username != nil && strings.EqualFold(*other.Username, *p.Username) {
				return common.NewCodedError(common.ErrConflict, common.CodeUsernameTaken, "Username already taken")
			}
		}
	}
	r.Profiles[p.UserID] = *p
	return nil
}

func (r *ProfileRepository) UpdateStats(_ context.Context, _ *sql.Tx, userID string, solved model.SolvedStats, subs model.SubmissionStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.Solved = solved
	p.Submissions = subs
	r.Profiles[userID] = p
	return nil
}

func (r *ProfileRepository) Leaderboard(_ context.Context, sortBy string, limit, offset int) ([]model.LeaderboardRow, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]model.UserProfile, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		all = append(all, p)
	}
	key := func(p model.UserProfile) int {
		switch sortBy {
		case model.LeaderboardSortSolved:
			return p.Solved.Total
		case model.LeaderboardSortSubmissions:
			return p.Submissions.Total
		}
		return p.Rating
	}
	sort.Slice(all, func(i, j int) bool {
		if key(all[i]) != key(all[j]) {
			return key(all[i]) > key(all[j])
		}
		if all[i].Submissions.Accepted != all[j].Submissions.Accepted {
			return all[i].Submissions.Accepted > all[j].Submissions.Accepted
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	out := []model.LeaderboardRow{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, model.LeaderboardRow{Profile: all[i], Name: r.Names[all[i].UserID]})
	}
	return out, len(all), nil
}

// ProblemRepository hands out p-<n> ids from 1000 when none is set. CreateErr, when set, fails every Create.
type ProblemRepository struct {
	mu        sync.RWMutex
	Problems  map[string]model.Problem
	nextID    int
	CreateErr error
}

func NewProblemRepository(problems ...model.Problem) *ProblemRepository {
	r := &ProblemRepository{Problems: map[string]model.Problem{}, nextID: 1000}
	for _, p := range problems {
		r.Problems[p.ID] = p
	}
	return r
}

func (r *ProblemRepository) Create(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, existing := range r.Problems {
		if existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	if p.ID == "" {
		for {
			id := fmt.Sprintf("p-%d", r.nextID)
			r.nextID++
			if _, taken := r.Problems[id]; !taken {
				p.ID = id
				break
			}
		}
	}
	r.Problems[p.ID] = *p
	return nil
}

func (r *ProblemRepository) Upsert(_ context.Context, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Problems[p.ID] = *p
	return nil
}

func (r *ProblemRepository) FindBySlug(_ context.Context, slug string) (*model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.Problems {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *ProblemRepository) FindByID(_ context.Context, id string) (*model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.Problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *ProblemRepository) sorted() []model.Problem {
	out := make([]model.Problem, 0, len(r.Problems))
	for _, p := range r.Problems {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ProblemRepository) List(_ context.Context, f model.ProblemFilter) ([]model.Problem, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []model.Problem
	for _, p := range r.sorted() {
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		if f.Tag != "" && !containsString(p.Tags, f.Tag) {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(p.Slug, q) {
				continue
			}
		}
		matched = append(matched, p)
	}
	out := []model.Problem{}
	for i := f.Offset; i < len(matched) && i < f.Offset+f.Limit; i++ {
		out = append(out, matched[i])
	}
	return out, len(matched), nil
}

func (r *ProblemRepository) ListAll(_ context.Context) ([]model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(), nil
}

type SubmissionRepository struct {
	mu   sync.RWMutex
	Subs map[string]model.Submission
}

func NewSubmissionRepository(subs ...model.Submission) *SubmissionRepository {
	r := &SubmissionRepository{Subs: map[string]model.Submission{}}
	for _, s := range subs {
		r.Subs[s.ID] = s
	}
	return r
}

func (r *SubmissionRepository) Create(_ context.Context, _ *sql.Tx, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Subs[s.ID] = *s
	return nil
}

func (r *SubmissionRepository) FindByID(_ context.Context, id string) (*model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.Subs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *SubmissionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Subs[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.Subs, id)
	return nil
}

// newestFirst returns the user's submissions ordered by submitted_at descending.
func (r *SubmissionRepository) newestFirst(userID string) []model.Submission {
	var out []model.Submission
	for _, s := range r.Subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (r *SubmissionRepository) List(_ context.Context, f model.SubmissionFilter) ([]model.Submission, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []model.Submission
	for _, s := range r.newestFirst(f.UserID) {
		if f.ProblemSlug != "" && s.ProblemSlug != f.ProblemSlug {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		matched = append(matched, s)
	}
	out := []model.Submission{}
	for i := f.Offset; i < len(matched) && i < f.Offset+f.Limit; i++ {
		out = append(out, matched[i])
	}
	return out, len(matched), nil
}

func (r *SubmissionRepository) UpdateVerdict(_ context.Context, _ *sql.Tx, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Subs[s.ID]; !ok {
		return common.ErrNotFound
	}
	r.Subs[s.ID] = *s
	return nil
}

func (r *SubmissionRepository) CountsForUser(_ context.Context, _ *sql.Tx, userID string) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total, accepted int
	for _, s := range r.Subs {
		if s.UserID != userID || !s.Status.Judged() {
			continue
		}
		total++
		if s.Status == model.StatusAccepted {
			accepted++
		}
	}
	return total, accepted, nil
}

func (r *SubmissionRepository) ProblemStats(_ context.Context) (map[string]model.ProblemStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]model.ProblemStats{}
	for _, s := range r.Subs {
		if !s.Status.Judged() {
			continue
		}
		st := out[s.ProblemID]
		st.Submissions++
		if s.Status == model.StatusAccepted {
			st.Accepted++
		}
		out[s.ProblemID] = st
	}
	return out, nil
}

func (r *SubmissionRepository) DailyCounts(_ context.Context, userID string, since time.Time) ([]model.DailyCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[string]int{}
	for _, s := range r.Subs {
		if s.UserID == userID && !s.SubmittedAt.Before(since) {
			counts[s.SubmittedAt.UTC().Format(dayLayout)]++
		}
	}
	out := []model.DailyCount{}
	for day, n := range counts {
		out = append(out, model.DailyCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *SubmissionRepository) RecentStatuses(_ context.Context, userID string, limit int) ([]model.SubmissionStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.SubmissionStatus
	for _, s := range r.newestFirst(userID) {
		if !s.Status.Judged() {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, s.Status)
	}
	return out, nil
}

func (r *SubmissionRepository) CountFailed(_ context.Context, userID, problemID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.Subs {
		if s.UserID == userID && s.ProblemID == problemID && s.Status.Judged() && s.Status != model.StatusAccepted {
			n++
		}
	}
	return n, nil
}

func (r *SubmissionRepository) FastestAccepted(_ context.Context, problemID string) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	best, found := 0, false
	for _, s := range r.Subs {
		if s.ProblemID != problemID || s.Status != model.StatusAccepted {
			continue
		}
		if !found || s.ExecutionTimeMs < best {
			best, found = s.ExecutionTimeMs, true
		}
	}
	return best, found, nil
}

func (r *SubmissionRepository) DistinctAcceptedLanguages(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := map[string]bool{}
	for _, s := range r.Subs {
		if s.UserID == userID && s.Status == model.StatusAccepted {
			langs[s.Language] = true
		}
	}
	return len(langs), nil
}

// UserProblemRepository keys rows by user id and problem id.
type UserProblemRepository struct {
	mu   sync.RWMutex
	Rows map[string]model.UserProblem // user id + "/" + problem id
}

func NewUserProblemRepository(rows ...model.UserProblem) *UserProblemRepository {
	r := &UserProblemRepository{Rows: map[string]model.UserProblem{}}
	for _, up := range rows {
		r.Rows[up.UserID+"/"+up.ProblemID] = up
	}
	return r
}

func (r *UserProblemRepository) MarkAttempted(_ context.Context, _ *sql.Tx, up *model.UserProblem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := up.UserID + "/" + up.ProblemID
	row, ok := r.Rows[key]
	if !ok {
		row = *up
		row.Status = model.ProblemAttempted
	}
	row.Attempts++
	row.LastSubmissionAt = up.LastSubmissionAt
	row.Status = row.Status.Merge(model.ProblemAttempted)
	r.Rows[key] = row
	return nil
}

func (r *UserProblemRepository) MarkSolved(_ context.Context, _ *sql.Tx, up *model.UserProblem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := up.UserID + "/" + up.ProblemID
	row, ok := r.Rows[key]
	if !ok {
		row = *up
		row.Attempts = 1
	}
	row.Status = model.ProblemSolved
	if row.SolvedAt == nil {
		row.SolvedAt = up.SolvedAt
	}
	r.Rows[key] = row
	return nil
}

func (r *UserProblemRepository) ListByUser(_ context.Context, userID string) ([]model.UserProblem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.UserProblem{}
	for _, up := range r.Rows {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProblemID < out[j].ProblemID })
	return out, nil
}

// Get returns the stored row for a user and problem.
func (r *UserProblemRepository) Get(userID, problemID string) (model.UserProblem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	up, ok := r.Rows[userID+"/"+problemID]
	return up, ok
}

type BadgeRepository struct {
	mu      sync.RWMutex
	Catalog []model.Badge
	owned   map[string][]model.UserBadge // by user id, oldest first
}

func NewBadgeRepository(catalog []model.Badge) *BadgeRepository {
	return &BadgeRepository{Catalog: append([]model.Badge(nil), catalog...), owned: map[string][]model.UserBadge{}}
}

func (r *BadgeRepository) Upsert(_ context.Context, b *model.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Catalog {
		if r.Catalog[i].ID == b.ID {
			r.Catalog[i] = *b
			return nil
		}
	}
	r.Catalog = append(r.Catalog, *b)
	return nil
}

func (r *BadgeRepository) ListActive(_ context.Context) ([]model.Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Badge{}
	for _, b := range r.Catalog {
		if b.IsActive {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *BadgeRepository) ListByUser(_ context.Context, userID string) ([]model.UserBadge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := r.owned[userID]
	out := make([]model.UserBadge, 0, len(owned))
	for i := len(owned) - 1; i >= 0; i-- {
		out = append(out, owned[i])
	}
	return out, nil
}

func (r *BadgeRepository) Award(_ context.Context, _ *sql.Tx, userID, badgeID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ub := range r.owned[userID] {
		if ub.BadgeID == badgeID {
			return false, nil
		}
	}
	var details *model.Badge
	for i := range r.Catalog {
		if r.Catalog[i].ID == badgeID {
			b := r.Catalog[i]
			details = &b
		}
	}
	r.owned[userID] = append(r.owned[userID], model.UserBadge{UserID: userID, BadgeID: badgeID, AwardedAt: at, Badge: details})
	return true, nil
}

// OwnedIDs lists a user's badge ids in award order.
func (r *BadgeRepository) OwnedIDs(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, ub := range r.owned[userID] {
		ids = append(ids, ub.BadgeID)
	}
	return ids
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
