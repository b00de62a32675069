// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is periodic housekeeping run by workers.Scheduler.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// ExpiredCleaner deletes rows past their expiry.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(states ExpiredCleaner, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := states.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// UploadLockCleanupJob removes publish locks abandoned by crashed uploads.
func UploadLockCleanupJob(locks ExpiredCleaner, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "upload-lock-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := locks.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Warn("removed expired upload locks", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// Sweeper drops stale in-memory entries.
type Sweeper interface {
	Sweep() int
}

// RateLimitSweepJob keeps the publish limiter's key map from growing.
func RateLimitSweepJob(l Sweeper, interval time.Duration) Job {
	return Job{
		Name:     "ratelimit-sweep",
		Interval: interval,
		Run: func(context.Context) error {
			l.Sweep()
			return nil
		},
	}
}
