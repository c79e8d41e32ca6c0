package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Difficulty  ProblemDifficulty `json:"difficulty"`
	Tags        []string          `json:"tags"`
	Statement   string            `json:"statement"`
	Constraints []string          `json:"constraints"`
	Examples    []Example         `json:"examples"`
	Hints       []string          `json:"-"`
	TestCases   []TestCase        `json:"-"` // Judge only
	CreatedAt   time.Time         `json:"created_at"`
}

type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
}

// ProblemStats aggregates judged submissions for one problem.
type ProblemStats struct {
	Submissions int `json:"submissions"`
	Accepted    int `json:"accepted"`
}

func (s ProblemStats) AcceptanceRate() float64 {
	if s.Submissions == 0 {
		return 0
	}
	rate := float64(s.Accepted) / float64(s.Submissions) * 100
	return float64(int(rate*10+0.5)) / 10
}

type ProblemSummary struct {
	ID             string            `json:"id"`
	Slug           string            `json:"slug"`
	Title          string            `json:"title"`
	Difficulty     ProblemDifficulty `json:"difficulty"`
	Tags           []string          `json:"tags"`
	AcceptanceRate float64           `json:"acceptance_rate"`
	Submissions    int               `json:"submissions"`
	Status         ProblemStatus     `json:"status,omitempty"`
}

// ProblemDetail is the public view of a problem: hidden test cases stripped.
type ProblemDetail struct {
	Problem
	AcceptanceRate float64       `json:"acceptance_rate"`
	Submissions    int           `json:"submissions"`
	HasHints       bool          `json:"has_hints"`
	SampleTests    []TestCase    `json:"sample_tests"`
	Status         ProblemStatus `json:"status,omitempty"`
}

func (p *Problem) VisibleTestCases() []TestCase {
	out := []TestCase{}
	for _, tc := range p.TestCases {
		if !tc.IsHidden {
			out = append(out, tc)
		}
	}
	return out
}

type ProblemFilter struct {
	Difficulty ProblemDifficulty
	Tag        string
	Search     string
	Limit      int
	Offset     int
}
