package model

import "time"

type ProblemStatus string

const (
	ProblemUnsolved   ProblemStatus = "Unsolved"
	ProblemAttempted  ProblemStatus = "Attempted"
	ProblemSolved     ProblemStatus = "Solved"
	ProblemNotStarted ProblemStatus = "Not Started"
)

type UserProblem struct {
	UserID           string        `json:"user_id"`
	ProblemID        string        `json:"problem_id"`
	ProblemSlug      string        `json:"problem_slug"`
	ProblemTitle     string        `json:"problem_title"`
	Status           ProblemStatus `json:"status"`
	Attempts         int           `json:"attempts"`
	LastSubmissionAt *time.Time    `json:"last_submission_at,omitempty"`
	SolvedAt         *time.Time    `json:"solved_at,omitempty"`
}

// Merge returns the status after observing next. Solved never goes back.
func (s ProblemStatus) Merge(next ProblemStatus) ProblemStatus {
	if s == ProblemSolved || next == ProblemSolved {
		return ProblemSolved
	}
	if s == ProblemAttempted || next == ProblemAttempted {
		return ProblemAttempted
	}
	return ProblemUnsolved
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
