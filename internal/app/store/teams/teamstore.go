// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"time"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists team memberships. The unique index on
// (creator_email, editor_email, role) makes Upsert converge under races.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("team_members")}
}

func tripleFilter(creator, editor string, role models.Role) bson.M {
	return bson.M{"creator_email": creator, "editor_email": editor, "role": role}
}

// Upsert activates the membership for the triple. A new membership gets
// perms as its snapshot; an existing one keeps the snapshot it already has.
func (s *Store) Upsert(ctx context.Context, creator, editor string, role models.Role, perms models.Permissions) (models.TeamMembership, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":    models.MembershipActive,
			"joined_at": now,
		},
		"$setOnInsert": bson.M{
			"permissions": perms,
			"invited_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var m models.TeamMembership
	err := s.c.FindOneAndUpdate(ctx, tripleFilter(creator, editor, role), update, opts).Decode(&m)
	if err != nil && wafflemongo.IsDup(err) {
		// Lost an insert race; the document exists now, so this is a plain update.
		err = s.c.FindOneAndUpdate(ctx, tripleFilter(creator, editor, role), update, opts).Decode(&m)
	}
	return m, err
}

// Get returns the membership for the triple, or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, creator, editor string, role models.Role) (models.TeamMembership, error) {
	var m models.TeamMembership
	err := s.c.FindOne(ctx, tripleFilter(creator, editor, role)).Decode(&m)
	return m, err
}

// Delete hard-deletes the membership. deleted is false when it did not exist.
func (s *Store) Delete(ctx context.Context, creator, editor string, role models.Role) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, tripleFilter(creator, editor, role))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListActiveFor returns the active memberships of editor on creator's team.
func (s *Store) ListActiveFor(ctx context.Context, creator, editor string) ([]models.TeamMembership, error) {
	return s.find(ctx, bson.M{
		"creator_email": creator,
		"editor_email":  editor,
		"status":        models.MembershipActive,
	}, nil)
}

// ListByCreator returns every membership of creator, newest invite first.
func (s *Store) ListByCreator(ctx context.Context, creator string) ([]models.TeamMembership, error) {
	return s.find(ctx, bson.M{"creator_email": creator},
		options.Find().SetSort(bson.D{{Key: "invited_at", Value: -1}, {Key: "editor_email", Value: 1}}))
}

// ListActiveByCreator returns the active memberships of creator.
func (s *Store) ListActiveByCreator(ctx context.Context, creator string) ([]models.TeamMembership, error) {
	return s.find(ctx, bson.M{"creator_email": creator, "status": models.MembershipActive}, nil)
}

// ListActiveByEditor returns every active membership the editor holds, across creators.
func (s *Store) ListActiveByEditor(ctx context.Context, editor string) ([]models.TeamMembership, error) {
	return s.find(ctx, bson.M{"editor_email": editor, "status": models.MembershipActive},
		options.Find().SetSort(bson.D{{Key: "creator_email", Value: 1}, {Key: "role", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.TeamMembership, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TeamMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
