package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeCleaner struct {
	n   int64
	err error
}

func (f fakeCleaner) CleanupExpired(context.Context) (int64, error) { return f.n, f.err }

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) Sweep() int { f.calls++; return 0 }

func TestJobs(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	if err := OAuthStateCleanupJob(fakeCleaner{n: 3}, log).Run(ctx); err != nil {
		t.Errorf("oauth cleanup: %v", err)
	}
	boom := errors.New("boom")
	if err := UploadLockCleanupJob(fakeCleaner{err: boom}, log, time.Minute).Run(ctx); !errors.Is(err, boom) {
		t.Errorf("lock cleanup error = %v, want boom", err)
	}

	s := &fakeSweeper{}
	job := RateLimitSweepJob(s, time.Minute)
	if err := job.Run(ctx); err != nil || s.calls != 1 {
		t.Errorf("sweep job: err=%v calls=%d", err, s.calls)
	}
	if job.Interval != time.Minute || job.Name == "" {
		t.Errorf("job = %+v", job)
	}
}
