package model

import "time"

// JudgeJob is the payload pushed on the judge queue for one submission.
type JudgeJob struct {
	SubmissionID string    `json:"submission_id"`
	Attempts     int       `json:"attempts"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	LastError    string    `json:"last_error,omitempty"`
}
