package uploadlockstore_test

import (
	"errors"
	"testing"
	"time"

	uploadlockstore "github.com/dalemusser/vidcollab/internal/app/store/uploadlocks"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AcquireIsExclusive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := uploadlockstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	videoID := primitive.NewObjectID()
	if err := store.Acquire(ctx, videoID, "a", time.Minute); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := store.Acquire(ctx, videoID, "b", time.Minute); !errors.Is(err, uploadlockstore.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// Releasing with the wrong owner leaves the lock in place.
	_ = store.Release(ctx, videoID, "b")
	if err := store.Acquire(ctx, videoID, "b", time.Minute); !errors.Is(err, uploadlockstore.ErrLocked) {
		t.Fatalf("expected ErrLocked after foreign release, got %v", err)
	}

	if err := store.Release(ctx, videoID, "a"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := store.Acquire(ctx, videoID, "b", time.Minute); err != nil {
		t.Errorf("Acquire after release failed: %v", err)
	}
}

func TestStore_ExpiredLockIsTakenOver(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := uploadlockstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	videoID := primitive.NewObjectID()
	if err := store.Acquire(ctx, videoID, "crashed", -time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := store.Acquire(ctx, videoID, "next", time.Minute); err != nil {
		t.Errorf("expired lock should be taken over, got %v", err)
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 0 {
		t.Errorf("live lock should survive cleanup, removed %d", n)
	}
}
