package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/logger"
	"algoryth/internal/platform/queue"
)

// Judge is the part of the judge service the worker drives.
type Judge interface {
	Judge(ctx context.Context, submissionID string) (*model.Submission, error)
	MarkSystemError(ctx context.Context, submissionID, message string) error
}

type JudgeWorker struct {
	jobs        queue.JobQueue
	locker      queue.Locker
	judge       Judge
	maxAttempts int
	pollTimeout time.Duration
	backoff     time.Duration
}

func NewJudgeWorker(jobs queue.JobQueue, locker queue.Locker, judge Judge, maxAttempts int) *JudgeWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &JudgeWorker{
		jobs:        jobs,
		locker:      locker,
		judge:       judge,
		maxAttempts: maxAttempts,
		pollTimeout: 5 * time.Second,
		backoff:     time.Second,
	}
}

// Start pops jobs until ctx is cancelled. Jobs are judged one at a time.
func (w *JudgeWorker) Start(ctx context.Context) {
	logger.Info().Int("max_attempts", w.maxAttempts).Msg("Judge worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Judge worker stopping...")
			return
		default:
		}

		job, err := w.jobs.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error().Err(err).Msg("Failed to pop from judge queue")
			w.sleep(ctx, 5*time.Second)
			continue
		}
		if job == nil {
			continue
		}
		logger.Debug().Str("submission_id", job.SubmissionID).Int("attempts", job.Attempts).Msg("Worker picked up job")
		w.ProcessJob(ctx, *job)
	}
}

// ProcessJob judges one submission under its lock.
func (w *JudgeWorker) ProcessJob(ctx context.Context, job model.JudgeJob) {
	if job.SubmissionID == "" {
		logger.Warn().Msg("Judge job without submission id dropped")
		return
	}

	token, ok, err := w.locker.Acquire(ctx, job.SubmissionID)
	if err != nil {
		logger.Error().Err(err).Str("submission_id", job.SubmissionID).Msg("Failed to attempt lock acquisition")
		w.retry(ctx, job, fmt.Errorf("%v: %w", err, common.ErrJobLockFailed))
		return
	}
	if !ok {
		// Another process holds the lock and will write the verdict.
		logger.Info().Str("submission_id", job.SubmissionID).Msg("Submission already being judged elsewhere, skipping")
		return
	}
	defer func() {
		released, err := w.locker.Release(context.WithoutCancel(ctx), job.SubmissionID, token)
		switch {
		case err != nil:
			logger.Error().Err(err).Str("submission_id", job.SubmissionID).Msg("Failed to release judge lock")
		case !released:
			logger.Warn().Str("submission_id", job.SubmissionID).Msg("Judge lock expired before release")
		}
	}()

	sub, err := w.judge.Judge(ctx, job.SubmissionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Warn().Err(err).Str("submission_id", job.SubmissionID).Msg("Judge job for a missing submission dropped")
			return
		}
		w.retry(ctx, job, err)
		return
	}
	logger.Debug().Str("submission_id", sub.ID).Str("status", string(sub.Status)).Msg("Judge job done")
}

// retry puts the job back until it runs out of attempts, then records a system error.
func (w *JudgeWorker) retry(ctx context.Context, job model.JudgeJob, cause error) {
	job.Attempts++
	job.LastError = cause.Error()
	bg := context.WithoutCancel(ctx)

	if job.Attempts >= w.maxAttempts {
		logger.Error().Err(cause).Str("submission_id", job.SubmissionID).Int("attempts", job.Attempts).Msg("Judge job failed permanently")
		if err := w.judge.MarkSystemError(bg, job.SubmissionID, "Code execution service unavailable"); err != nil {
			logger.Error().Err(err).Str("submission_id", job.SubmissionID).Msg("Failed to mark submission as system error")
		}
		return
	}

	logger.Warn().Err(cause).Str("submission_id", job.SubmissionID).Int("attempts", job.Attempts).Msg("Judge job failed, re-queueing")
	w.sleep(ctx, time.Duration(job.Attempts)*w.backoff)
	if err := w.jobs.Requeue(bg, job); err != nil {
		logger.Error().Err(err).Str("submission_id", job.SubmissionID).Msg("Failed to re-queue judge job")
	}
}

func (w *JudgeWorker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
