package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data directly in MongoDB.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateEditor inserts an editor with the given cumulative rating.
func (f *Fixtures) CreateEditor(ctx context.Context, email string, rating, people int) models.Editor {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Editor{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Rating:    rating,
		People:    people,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("editors").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("CreateEditor(%s): %v", email, err)
	}
	return e
}

// CreateMembership inserts an active membership with the role's default grants.
func (f *Fixtures) CreateMembership(ctx context.Context, creator, editor string, role models.Role) models.TeamMembership {
	f.t.Helper()

	perms, _ := models.RolePermissions(role)
	now := time.Now().UTC()
	m := models.TeamMembership{
		ID:           primitive.NewObjectID(),
		CreatorEmail: creator,
		EditorEmail:  editor,
		Role:         role,
		Status:       models.MembershipActive,
		Permissions:  perms,
		InvitedAt:    now,
		JoinedAt:     &now,
	}
	if _, err := f.db.Collection("team_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("CreateMembership: %v", err)
	}
	return m
}

// CreateVideo inserts a video owned by creator in the given status.
func (f *Fixtures) CreateVideo(ctx context.Context, creator, title string, status models.VideoStatus) models.Video {
	f.t.Helper()

	now := time.Now().UTC()
	v := models.Video{
		ID:           primitive.NewObjectID(),
		CreatorEmail: creator,
		Title:        title,
		Tags:         []string{},
		Category:     models.DefaultCategory,
		Privacy:      models.PrivacyPublic,
		Status:       status,
		FilePath:     "videos/" + title + ".mp4",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("videos").InsertOne(ctx, v); err != nil {
		f.t.Fatalf("CreateVideo(%s): %v", title, err)
	}
	return v
}

// CreateAssignment inserts an assignment in the given task status.
func (f *Fixtures) CreateAssignment(ctx context.Context, v models.Video, editor string, role models.Role, status models.TaskStatus) models.VideoAssignment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.VideoAssignment{
		ID:           primitive.NewObjectID(),
		VideoID:      v.ID,
		CreatorEmail: v.CreatorEmail,
		EditorEmail:  editor,
		Role:         role,
		TaskStatus:   status,
		AssignedAt:   now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("video_assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("CreateAssignment: %v", err)
	}
	return a
}
