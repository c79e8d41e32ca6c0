package model

import "time"

type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "Pending"
	StatusAccepted            SubmissionStatus = "Accepted"
	StatusWrongAnswer         SubmissionStatus = "Wrong Answer"
	StatusRuntimeError        SubmissionStatus = "Runtime Error"
	StatusTimeLimitExceeded   SubmissionStatus = "Time Limit Exceeded"
	StatusCompilationError    SubmissionStatus = "Compilation Error"
	StatusMemoryLimitExceeded SubmissionStatus = "Memory Limit Exceeded"
	StatusSystemError         SubmissionStatus = "System Error" // Executor unreachable after retries
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusWrongAnswer, StatusRuntimeError, StatusTimeLimitExceeded,
		StatusCompilationError, StatusMemoryLimitExceeded, StatusSystemError:
		return true
	}
	return false
}

// Judged reports whether the submission has a final verdict from the judge.
func (s SubmissionStatus) Judged() bool {
	return s != StatusPending && s != StatusSystemError && s != ""
}

type Submission struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	ProblemID       string            `json:"problem_id"`
	ProblemSlug     string            `json:"problem_slug"`
	ProblemTitle    string            `json:"problem_title"`
	Difficulty      ProblemDifficulty `json:"difficulty"`
	Language        string            `json:"language"`
	Code            string            `json:"code"`
	Status          SubmissionStatus  `json:"status"`
	TestCasesPassed int               `json:"test_cases_passed"`
	TotalTestCases  int               `json:"total_test_cases"`
	ExecutionTimeMs int               `json:"execution_time_ms"`
	MemoryKb        int               `json:"memory_kb"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	JudgedAt        *time.Time        `json:"judged_at,omitempty"`
}

type SubmissionFilter struct {
	UserID      string
	ProblemSlug string
	Status      SubmissionStatus
	Limit       int
	Offset      int
}
