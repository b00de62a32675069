package commentstore_test

import (
	"testing"

	commentstore "github.com/dalemusser/vidcollab/internal/app/store/comments"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_ThreadLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := fixtures.CreateVideo(ctx, "c@example.com", "intro", models.VideoReview)

	root, err := store.Create(ctx, models.VideoComment{
		VideoID:   v.ID,
		UserEmail: "c@example.com",
		UserType:  models.UserCreator,
		Text:      "trim the intro",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = store.Create(ctx, models.VideoComment{
		VideoID:         v.ID,
		UserEmail:       "e@example.com",
		UserType:        models.UserEditor,
		Text:            "done",
		ParentCommentID: &root.ID,
	})
	if err != nil {
		t.Fatalf("Create reply failed: %v", err)
	}

	list, err := store.ListByVideo(ctx, v.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByVideo: %d comments, err=%v", len(list), err)
	}
	if list[0].ID != root.ID {
		t.Error("comments should be ordered oldest first")
	}

	resolved := true
	updated, err := store.Update(ctx, root.ID, nil, &resolved)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.Resolved || updated.Text != "trim the intro" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if err := store.Delete(ctx, root.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list, _ = store.ListByVideo(ctx, v.ID)
	if len(list) != 0 {
		t.Errorf("replies should be deleted with their parent, %d left", len(list))
	}
	if err := store.Delete(ctx, root.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
