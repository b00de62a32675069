package teamstore_test

import (
	"testing"

	teamstore "github.com/dalemusser/vidcollab/internal/app/store/teams"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_UpsertKeepsOriginalPermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	perms, _ := models.RolePermissions(models.RoleVideoEditor)
	first, err := store.Upsert(ctx, "c@example.com", "e@example.com", models.RoleVideoEditor, perms)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !first.Active() || !first.Permissions.CanDownloadVideos {
		t.Fatalf("unexpected membership after first upsert: %+v", first)
	}

	second, err := store.Upsert(ctx, "c@example.com", "e@example.com", models.RoleVideoEditor, models.Permissions{})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-invite created a new record: %s vs %s", second.ID.Hex(), first.ID.Hex())
	}
	if !second.Permissions.CanDownloadVideos {
		t.Error("re-invite should not overwrite the original grants")
	}

	all, err := store.ListByCreator(ctx, "c@example.com")
	if err != nil {
		t.Fatalf("ListByCreator failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 membership, got %d", len(all))
	}
}

func TestStore_ListActiveForAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMembership(ctx, "c@example.com", "e@example.com", models.RoleVideoEditor)
	fixtures.CreateMembership(ctx, "c@example.com", "e@example.com", models.RoleThumbnailDesigner)
	fixtures.CreateMembership(ctx, "other@example.com", "e@example.com", models.RoleMetadataManager)

	active, err := store.ListActiveFor(ctx, "c@example.com", "e@example.com")
	if err != nil {
		t.Fatalf("ListActiveFor failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(active))
	}

	deleted, err := store.Delete(ctx, "c@example.com", "e@example.com", models.RoleThumbnailDesigner)
	if err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "c@example.com", "e@example.com", models.RoleThumbnailDesigner)
	if err != nil || deleted {
		t.Errorf("second Delete: deleted=%v err=%v", deleted, err)
	}

	if _, err := store.Get(ctx, "c@example.com", "e@example.com", models.RoleThumbnailDesigner); err != mongo.ErrNoDocuments {
		t.Errorf("Get after delete: expected ErrNoDocuments, got %v", err)
	}

	byEditor, err := store.ListActiveByEditor(ctx, "e@example.com")
	if err != nil {
		t.Fatalf("ListActiveByEditor failed: %v", err)
	}
	if len(byEditor) != 2 {
		t.Errorf("expected 2 memberships across creators, got %d", len(byEditor))
	}
}
