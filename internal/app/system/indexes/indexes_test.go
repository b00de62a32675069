package indexes_test

import (
	"testing"

	"github.com/dalemusser/vidcollab/internal/app/system/indexes"
	"github.com/dalemusser/vidcollab/internal/testutil"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s: %v", coll, err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var ix bson.M
		if err := cur.Decode(&ix); err != nil {
			continue
		}
		if name, ok := ix["name"].(string); ok {
			out[name] = ix
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	want := map[string][]string{
		"creators":          {"uniq_creators_email"},
		"editors":           {"uniq_editors_email"},
		"team_members":      {"uniq_team_creator_editor_role", "idx_team_creator_status", "idx_team_editor_status"},
		"videos":            {"idx_videos_creator_created", "idx_videos_creator_status"},
		"video_assignments": {"uniq_assign_video_editor_role", "idx_assign_editor_assigned", "idx_assign_video_status"},
		"video_comments":    {"idx_comments_video_created"},
		"audit_events":      {"idx_audit_creator_time", "idx_audit_video_time"},
		"oauth_states":      {"uniq_oauth_state", "ttl_oauth_expires"},
		"upload_locks":      {"ttl_upload_locks_expires"},
	}
	for coll, names := range want {
		got := indexNames(t, db, coll)
		for _, n := range names {
			if _, ok := got[n]; !ok {
				t.Errorf("%s: missing index %s", coll, n)
			}
		}
	}

	locks := indexNames(t, db, "upload_locks")
	if _, ok := locks["ttl_upload_locks_expires"]["expireAfterSeconds"]; !ok {
		t.Error("upload lock index has no TTL")
	}
}

func TestEnsureAll_RecreatesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A non-unique index on the same key, under another name.
	_, err := db.Collection("editors").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_1_legacy"),
	})
	if err != nil {
		t.Fatalf("CreateOne: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	got := indexNames(t, db, "editors")
	if _, ok := got["email_1_legacy"]; ok {
		t.Error("legacy index not replaced")
	}
	if u, _ := got["uniq_editors_email"]["unique"].(bool); !u {
		t.Error("replacement index is not unique")
	}
}

func TestEnsureAll_UniqueMembershipTriple(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	doc := bson.M{"creator_email": "c@example.com", "editor_email": "e@example.com", "role": "video_editor"}
	coll := db.Collection("team_members")
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := coll.InsertOne(ctx, bson.M{"creator_email": "c@example.com", "editor_email": "e@example.com", "role": "video_editor"})
	if !wafflemongo.IsDup(err) {
		t.Errorf("duplicate triple insert = %v, want duplicate key error", err)
	}
}
