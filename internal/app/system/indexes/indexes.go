// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Every collection's index set is reconciled
idempotently; problems are aggregated so startup fails with the full list.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, c := range collections() {
		if err := ensureIndexSet(ctx, db.Collection(c.name), c.indexes); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collection struct {
	name    string
	indexes []mongo.IndexModel
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func unique(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

// ttl expires documents once the time in field has passed.
func ttl(name, field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetName(name).SetExpireAfterSeconds(0),
	}
}

func collections() []collection {
	return []collection{
		{"creators", []mongo.IndexModel{
			unique("uniq_creators_email", bson.D{{Key: "email", Value: 1}}),
		}},
		{"editors", []mongo.IndexModel{
			unique("uniq_editors_email", bson.D{{Key: "email", Value: 1}}),
		}},
		{"team_members", []mongo.IndexModel{
			unique("uniq_team_creator_editor_role", bson.D{
				{Key: "creator_email", Value: 1}, {Key: "editor_email", Value: 1}, {Key: "role", Value: 1},
			}),
			idx("idx_team_creator_status", bson.D{{Key: "creator_email", Value: 1}, {Key: "status", Value: 1}}),
			idx("idx_team_editor_status", bson.D{{Key: "editor_email", Value: 1}, {Key: "status", Value: 1}}),
		}},
		{"videos", []mongo.IndexModel{
			idx("idx_videos_creator_created", bson.D{{Key: "creator_email", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_videos_creator_status", bson.D{{Key: "creator_email", Value: 1}, {Key: "status", Value: 1}}),
		}},
		{"video_assignments", []mongo.IndexModel{
			unique("uniq_assign_video_editor_role", bson.D{
				{Key: "video_id", Value: 1}, {Key: "editor_email", Value: 1}, {Key: "role", Value: 1},
			}),
			idx("idx_assign_editor_assigned", bson.D{{Key: "editor_email", Value: 1}, {Key: "assigned_at", Value: -1}}),
			idx("idx_assign_video_status", bson.D{{Key: "video_id", Value: 1}, {Key: "task_status", Value: 1}}),
			idx("idx_assign_creator_status", bson.D{{Key: "creator_email", Value: 1}, {Key: "task_status", Value: 1}}),
		}},
		{"video_comments", []mongo.IndexModel{
			idx("idx_comments_video_created", bson.D{{Key: "video_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_creator_time", bson.D{{Key: "creator_email", Value: 1}, {Key: "timestamp", Value: -1}}),
			idx("idx_audit_video_time", bson.D{{Key: "video_id", Value: 1}, {Key: "timestamp", Value: -1}}),
			idx("idx_audit_category_time", bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}}),
		}},
		{"oauth_states", []mongo.IndexModel{
			unique("uniq_oauth_state", bson.D{{Key: "state", Value: 1}}),
			ttl("ttl_oauth_expires", "expires_at"),
		}},
		{"upload_locks", []mongo.IndexModel{
			ttl("ttl_upload_locks_expires", "expires_at"),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile the desired indexes of one collection                            */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name        string `bson:"name"`
	Key         bson.D `bson:"key"`
	Unique      *bool  `bson:"unique,omitempty"`
	ExpireAfter *int32 `bson:"expireAfterSeconds,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

type desired struct {
	name   string
	sig    string
	unique bool
	expire *int32
}

func describe(m mongo.IndexModel) desired {
	d := desired{sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
		d.expire = m.Options.ExpireAfterSeconds
	}
	return d
}

// matches reports whether ex can be reused for d as is.
func (d desired) matches(ex existingIndex) bool {
	exUnique := ex.Unique != nil && *ex.Unique
	if exUnique != d.unique {
		return false
	}
	if (d.expire == nil) != (ex.ExpireAfter == nil) {
		return false
	}
	if d.expire != nil && *d.expire != *ex.ExpireAfter {
		return false
	}
	return d.name == "" || d.name == ex.Name
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(ix.Key)] = ix
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		if ex, ok := existing[d.sig]; ok {
			if d.matches(ex) {
				log.Debug("reusing existing index")
				continue
			}
			// Options or name differ: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", d.name, ex.Name, err))
				continue
			}
			log.Info("dropped index to recreate it", zap.String("existing", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wafflemongo.IsDup(err) && d.unique {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", d.name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", d.name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
