package videopolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/vidcollab/internal/app/policy/videopolicy"
	teamstore "github.com/dalemusser/vidcollab/internal/app/store/teams"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
)

func TestCanPerform(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const creator = "c@example.com"
	fixtures.CreateMembership(ctx, creator, "ve@example.com", models.RoleVideoEditor)
	fixtures.CreateMembership(ctx, creator, "multi@example.com", models.RoleThumbnailDesigner)
	fixtures.CreateMembership(ctx, creator, "multi@example.com", models.RoleMetadataManager)
	fixtures.CreateMembership(ctx, "other@example.com", "outsider@example.com", models.RoleVideoEditor)

	checker := videopolicy.New(teamstore.New(db))

	tests := []struct {
		name   string
		actor  string
		action models.Capability
		want   bool
	}{
		{"owner can do anything", creator, models.CanUploadThumbnails, true},
		{"owner matched case-insensitively", " C@Example.com ", models.CanEditMetadata, true},
		{"video editor downloads", "ve@example.com", models.CanDownloadVideos, true},
		{"video editor uploads edits", "ve@example.com", models.CanUploadEditedVideos, true},
		{"video editor cannot edit metadata", "ve@example.com", models.CanEditMetadata, false},
		{"second role grants metadata", "multi@example.com", models.CanEditMetadata, true},
		{"first role grants thumbnails", "multi@example.com", models.CanUploadThumbnails, true},
		{"neither role grants download", "multi@example.com", models.CanDownloadVideos, false},
		{"member of another team", "outsider@example.com", models.CanDownloadVideos, false},
		{"unknown capability", "ve@example.com", models.Capability("canDelete"), false},
		{"empty actor", "", models.CanDownloadVideos, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.CanPerform(ctx, tt.actor, creator, tt.action)
			if err != nil {
				t.Fatalf("CanPerform: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanPerform(%q, %s) = %v, want %v", tt.actor, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanPerform_RemovalTakesEffectImmediately(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db)
	checker := videopolicy.New(store)
	fixtures.CreateMembership(ctx, "c@example.com", "e@example.com", models.RoleVideoEditor)

	ok, _ := checker.CanPerform(ctx, "e@example.com", "c@example.com", models.CanDownloadVideos)
	if !ok {
		t.Fatal("expected permission before removal")
	}
	if _, err := store.Delete(ctx, "c@example.com", "e@example.com", models.RoleVideoEditor); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, _ = checker.CanPerform(ctx, "e@example.com", "c@example.com", models.CanDownloadVideos)
	if ok {
		t.Error("permission survived membership removal")
	}
}

type failingLister struct{}

func (failingLister) ListActiveFor(context.Context, string, string) ([]models.TeamMembership, error) {
	return nil, errors.New("mongo down")
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	// Lookup failures deny and surface the error unclassified.
	checker := videopolicy.New(failingLister{})
	ok, err := checker.CanPerform(ctx, "e@example.com", "c@example.com", models.CanDownloadVideos)
	if ok || err == nil {
		t.Fatalf("CanPerform with failing store = (%v, %v), want (false, error)", ok, err)
	}
	if err := checker.Require(ctx, "op", "e@example.com", "c@example.com", models.CanDownloadVideos); apperr.Kind(err) == "authorization" {
		t.Errorf("store failure reported as authorization error")
	}

	// The owner never touches the store.
	if err := checker.Require(ctx, "op", "c@example.com", "c@example.com", models.CanDownloadVideos); err != nil {
		t.Errorf("owner Require: %v", err)
	}
}

func TestRequire_Denied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	checker := videopolicy.New(teamstore.New(db))
	err := checker.Require(ctx, "videos.Download", "stranger@example.com", "c@example.com", models.CanDownloadVideos)
	if !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("Require = %v, want authorization error", err)
	}
}

func TestRequireAny(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const creator = "c@example.com"
	fixtures.CreateMembership(ctx, creator, "art@example.com", models.RoleThumbnailDesigner)
	fixtures.CreateMembership(ctx, creator, "ve@example.com", models.RoleVideoEditor)
	checker := videopolicy.New(teamstore.New(db))

	tests := []struct {
		name  string
		actor string
		want  error
	}{
		{"owner", creator, nil},
		{"second capability matches", "art@example.com", nil},
		{"neither capability", "ve@example.com", apperr.ErrAuthorization},
		{"stranger", "stranger@example.com", apperr.ErrAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.RequireAny(ctx, "videos.Edit", tt.actor, creator, models.CanEditMetadata, models.CanUploadThumbnails)
			if tt.want == nil && err != nil {
				t.Fatalf("RequireAny: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("RequireAny = %v, want %v", err, tt.want)
			}
		})
	}
}
