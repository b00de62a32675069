// internal/app/workflow/lifecycle/lifecycle.go
//
// Package lifecycle owns a video from upload to approval: metadata edits,
// media replacement, the ready-for-review and approve transitions, rating
// and deletion. Publishing lives in package publish.
package lifecycle

import (
	"context"
	"errors"
	"io"

	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/filestore"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type VideoStore interface {
	Create(ctx context.Context, v models.Video) (models.Video, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Video, error)
	ListByCreator(ctx context.Context, creator string) ([]models.Video, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error)
	Apply(ctx context.Context, id primitive.ObjectID, expect models.VideoStatus, u videostore.Update) error
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.VideoStatus) error
	SetRating(ctx context.Context, id primitive.ObjectID, rating int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type AssignmentStore interface {
	ListByEditor(ctx context.Context, editor string) ([]models.VideoAssignment, error)
	ListForEditorOnVideo(ctx context.Context, videoID primitive.ObjectID, editor string) ([]models.VideoAssignment, error)
	CompleteForEditor(ctx context.Context, videoID primitive.ObjectID, editor string) (int64, error)
	DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error
}

// Completion answers the approval guard.
type Completion interface {
	AllCompleted(ctx context.Context, videoID primitive.ObjectID) (bool, error)
}

// Authorizer is the permission model.
type Authorizer interface {
	Require(ctx context.Context, op, actor, creator string, action models.Capability) error
	RequireAny(ctx context.Context, op, actor, creator string, actions ...models.Capability) error
}

type CommentStore interface {
	DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error
}

type EditorStore interface {
	AddRating(ctx context.Context, email string, rating int) error
}

type CreatorStore interface {
	Ensure(ctx context.Context, email string) (models.Creator, error)
}

// Transactor runs fn atomically when the store supports it. txn.Run bound
// to a database satisfies it.
type Transactor func(ctx context.Context, fn func(ctx context.Context) error) error

func direct(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// Deps wires a Service.
type Deps struct {
	Videos      VideoStore
	Assignments AssignmentStore
	Completion  Completion
	Policy      Authorizer
	Comments    CommentStore
	Editors     EditorStore
	Creators    CreatorStore
	Files       filestore.Store
	Notifier    notify.Notifier
	Audit       auditlog.Recorder
	Log         *zap.Logger
	// Tx groups multi-collection writes: MarkReady's task completion and
	// status move, and Delete's cascade. Nil runs them without a transaction.
	Tx Transactor
}

type Service struct {
	videos      VideoStore
	assignments AssignmentStore
	completion  Completion
	policy      Authorizer
	comments    CommentStore
	editors     EditorStore
	creators    CreatorStore
	files       filestore.Store
	notifier    notify.Notifier
	audit       auditlog.Recorder
	log         *zap.Logger
	tx          Transactor
}

func New(d Deps) *Service {
	s := &Service{
		videos:      d.Videos,
		assignments: d.Assignments,
		completion:  d.Completion,
		policy:      d.Policy,
		comments:    d.Comments,
		editors:     d.Editors,
		creators:    d.Creators,
		files:       d.Files,
		notifier:    d.Notifier,
		audit:       d.Audit,
		log:         d.Log,
		tx:          d.Tx,
	}
	if s.tx == nil {
		s.tx = direct
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.audit == nil {
		s.audit = auditlog.Discard
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Media is an uploaded file.
type Media struct {
	FileName string
	Body     io.Reader
}

func (s *Service) load(ctx context.Context, op string, id primitive.ObjectID) (models.Video, error) {
	v, err := s.videos.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Video{}, apperr.NotFound(op, "video not found")
	}
	return v, err
}

// loadOwned loads the video and checks that actor is its creator. Other
// actors see the same not-found error as a missing video.
func (s *Service) loadOwned(ctx context.Context, op, actor string, id primitive.ObjectID) (models.Video, error) {
	v, err := s.load(ctx, op, id)
	if err != nil {
		return models.Video{}, err
	}
	if v.CreatorEmail != actor {
		return models.Video{}, apperr.NotFound(op, "video not found")
	}
	return v, nil
}

func (s *Service) apply(ctx context.Context, op string, v models.Video, u videostore.Update) error {
	err := s.videos.Apply(ctx, v.ID, v.Status, u)
	if errors.Is(err, videostore.ErrStatusChanged) {
		return apperr.Conflict(op, "video was updated concurrently")
	}
	return err
}

func (s *Service) dropFile(ctx context.Context, p string) {
	if p == "" {
		return
	}
	if err := s.files.Delete(context.WithoutCancel(ctx), p); err != nil {
		s.log.Warn("failed to delete stored file", zap.String("path", p), zap.Error(err))
	}
}
