package creatorstore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	creatorstore "github.com/dalemusser/vidcollab/internal/app/store/creators"
	"github.com/dalemusser/vidcollab/internal/app/system/tokencrypt"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) *creatorstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sealer, err := tokencrypt.New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("tokencrypt.New: %v", err)
	}
	return creatorstore.New(db, sealer)
}

func TestStore_CredentialsRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Credentials(ctx, "c@example.com"); err != mongo.ErrNoDocuments {
		t.Fatalf("expected ErrNoDocuments for unknown creator, got %v", err)
	}

	if _, err := store.Ensure(ctx, "c@example.com"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if _, err := store.Credentials(ctx, "c@example.com"); !errors.Is(err, creatorstore.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	err := store.SaveCredentials(ctx, "c@example.com", models.Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       expiry,
	})
	if err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	// Refreshing without a new refresh token keeps the old one.
	if err := store.SaveCredentials(ctx, "c@example.com", models.Credentials{AccessToken: "access-2"}); err != nil {
		t.Fatalf("SaveCredentials failed: %v", err)
	}

	cred, err := store.Credentials(ctx, "c@example.com")
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if cred.AccessToken != "access-2" || cred.RefreshToken != "refresh-1" {
		t.Errorf("unexpected credentials: %+v", cred)
	}
	if !cred.Expiry.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", cred.Expiry, expiry)
	}

	c, _ := store.GetByEmail(ctx, "c@example.com")
	if string(c.RefreshToken) == "refresh-1" {
		t.Error("refresh token must not be stored in plaintext")
	}
}

func TestStore_ClearCredentials(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.ClearCredentials(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}

	_ = store.SaveCredentials(ctx, "c@example.com", models.Credentials{AccessToken: "a", RefreshToken: "r"})
	if err := store.MarkConnected(ctx, "c@example.com"); err != nil {
		t.Fatalf("MarkConnected failed: %v", err)
	}
	if err := store.ClearCredentials(ctx, "c@example.com"); err != nil {
		t.Fatalf("ClearCredentials failed: %v", err)
	}
	if _, err := store.Credentials(ctx, "c@example.com"); !errors.Is(err, creatorstore.ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials after clear, got %v", err)
	}
	c, _ := store.GetByEmail(ctx, "c@example.com")
	if c.ConnectedAt != nil {
		t.Error("connected_at should be cleared")
	}
}

func TestStore_SetPrimaryEditor(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _ = store.Ensure(ctx, "c@example.com")
	if err := store.SetPrimaryEditor(ctx, "c@example.com", "e@example.com"); err != nil {
		t.Fatalf("SetPrimaryEditor failed: %v", err)
	}
	c, _ := store.GetByEmail(ctx, "c@example.com")
	if c.PrimaryEditor != "e@example.com" {
		t.Errorf("primary editor = %q", c.PrimaryEditor)
	}

	_ = store.SetPrimaryEditor(ctx, "c@example.com", "")
	c, _ = store.GetByEmail(ctx, "c@example.com")
	if c.PrimaryEditor != "" {
		t.Errorf("primary editor should be cleared, got %q", c.PrimaryEditor)
	}
}
