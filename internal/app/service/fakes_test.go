package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository/memory"
	"algoryth/internal/platform/executor"
)

type (
	memUserRepo        = memory.UserRepository
	memProfileRepo     = memory.ProfileRepository
	memProblemRepo     = memory.ProblemRepository
	memSubmissionRepo  = memory.SubmissionRepository
	memUserProblemRepo = memory.UserProblemRepository
	memBadgeRepo       = memory.BadgeRepository
)

var (
	newMemUserRepo        = memory.NewUserRepository
	newMemProfileRepo     = memory.NewProfileRepository
	newMemProblemRepo     = memory.NewProblemRepository
	newMemSubmissionRepo  = memory.NewSubmissionRepository
	newMemUserProblemRepo = memory.NewUserProblemRepository
	newMemBadgeRepo       = memory.NewBadgeRepository
)

// fakeRunner answers every run through fn and records the stdin it saw.
type fakeRunner struct {
	mu     sync.Mutex
	fn     func(lang model.Language, code, stdin string) (*executor.RunResult, error)
	stdins []string
}

func (f *fakeRunner) Run(_ context.Context, lang model.Language, code, stdin string) (*executor.RunResult, error) {
	f.mu.Lock()
	f.stdins = append(f.stdins, stdin)
	f.mu.Unlock()
	return f.fn(lang, code, stdin)
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stdins)
}

// echoRunner prints its stdin back, which makes a test case pass when input equals expected output.
func echoRunner() *fakeRunner {
	return &fakeRunner{fn: func(_ model.Language, _ string, stdin string) (*executor.RunResult, error) {
		return &executor.RunResult{Stdout: stdin + "\n", TimeMs: 10, MemoryKb: 2048}, nil
	}}
}

type fakeJobQueue struct {
	mu   sync.Mutex
	jobs []model.JudgeJob
	err  error
}

func (q *fakeJobQueue) Enqueue(_ context.Context, job model.JudgeJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeJobQueue) Requeue(ctx context.Context, job model.JudgeJob) error {
	return q.Enqueue(ctx, job)
}

func (q *fakeJobQueue) Dequeue(_ context.Context, _ time.Duration) (*model.JudgeJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return false, c.err
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}


// fixedClock returns a now func pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func twoSum() model.Problem {
	return model.Problem{
		ID:         "p-1000",
		Slug:       "two-sum",
		Title:      "Two Sum",
		Difficulty: model.DifficultyEasy,
		Tags:       []string{"array", "hash-table"},
		Statement:  "Find two numbers.",
		Hints:      []string{"Use a map."},
		TestCases: []model.TestCase{
			{Input: "1", ExpectedOutput: "1"},
			{Input: "2", ExpectedOutput: "2"},
			{Input: "3", ExpectedOutput: "3", IsHidden: true},
		},
	}
}

func maxSubarray() model.Problem {
	return model.Problem{
		ID:         "p-2000",
		Slug:       "max-subarray",
		Title:      "Maximum Subarray",
		Difficulty: model.DifficultyMedium,
		Tags:       []string{"array", "dynamic-programming"},
		Statement:  "Largest sum.",
		TestCases:  []model.TestCase{{Input: "6", ExpectedOutput: "6"}},
	}
}
