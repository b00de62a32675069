// internal/app/workflow/publish/publish.go
//
// Package publish uploads an approved video to the creator's YouTube
// channel exactly once and then pushes its thumbnail.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/services/youtube"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	creatorstore "github.com/dalemusser/vidcollab/internal/app/store/creators"
	uploadlockstore "github.com/dalemusser/vidcollab/internal/app/store/uploadlocks"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/filestore"
	"github.com/dalemusser/vidcollab/internal/app/system/metrics"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxHashtags caps the hashtags appended to the description.
const MaxHashtags = 15

// Thumbnail outcomes.
const (
	ThumbnailUploaded = "uploaded"
	ThumbnailSkipped  = "skipped"
	ThumbnailFailed   = "failed"
)

type VideoStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Video, error)
	MarkPublished(ctx context.Context, id primitive.ObjectID, youtubeID string) error
}

type CredentialStore interface {
	Credentials(ctx context.Context, email string) (models.Credentials, error)
	SaveCredentials(ctx context.Context, email string, cred models.Credentials) error
}

// Platform is the external video host.
type Platform interface {
	Refresh(ctx context.Context, refreshToken string) (models.Credentials, error)
	UploadVideo(ctx context.Context, accessToken string, meta youtube.VideoUpload, media io.Reader) (string, error)
	UploadThumbnail(ctx context.Context, accessToken, youtubeID string, image io.Reader) error
}

// Locker serializes uploads per video.
type Locker interface {
	Acquire(ctx context.Context, videoID primitive.ObjectID, owner string, ttl time.Duration) error
	Release(ctx context.Context, videoID primitive.ObjectID, owner string) error
}

// Deps wires a Pipeline.
type Deps struct {
	Videos      VideoStore
	Credentials CredentialStore
	Platform    Platform
	Locks       Locker
	Files       filestore.Store
	Notifier    notify.Notifier
	Audit       auditlog.Recorder
	Log         *zap.Logger
	// LockTTL bounds how long a crashed publish can block the next one.
	LockTTL time.Duration
}

type Pipeline struct {
	videos   VideoStore
	creds    CredentialStore
	platform Platform
	locks    Locker
	files    filestore.Store
	notifier notify.Notifier
	audit    auditlog.Recorder
	log      *zap.Logger
	lockTTL  time.Duration
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		videos:   d.Videos,
		creds:    d.Credentials,
		platform: d.Platform,
		locks:    d.Locks,
		files:    d.Files,
		notifier: d.Notifier,
		audit:    d.Audit,
		log:      d.Log,
		lockTTL:  d.LockTTL,
	}
	if p.notifier == nil {
		p.notifier = notify.Nop{}
	}
	if p.audit == nil {
		p.audit = auditlog.Discard
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.lockTTL <= 0 {
		p.lockTTL = 30 * time.Minute
	}
	return p
}

// ThumbnailResult describes the best-effort thumbnail step.
type ThumbnailResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Result is the outcome of a successful Publish.
type Result struct {
	VideoID   string          `json:"video_id"`
	YouTubeID string          `json:"youtube_id"`
	Uploaded  bool            `json:"uploaded"`
	Thumbnail ThumbnailResult `json:"thumbnail"`
}

// Publish uploads the video if it has not been uploaded yet, records the
// YouTube id, and pushes the thumbnail. Calling it again for a published
// video only retries the thumbnail.
func (p *Pipeline) Publish(ctx context.Context, videoID primitive.ObjectID, creator string) (res Result, err error) {
	const op = "publish.Publish"
	creator = normalize.Email(creator)
	started := time.Now()

	defer func() {
		outcome := metrics.OutcomeFailed
		if err == nil {
			outcome = metrics.OutcomeAlreadyOnline
			if res.Uploaded {
				outcome = metrics.OutcomeUploaded
			}
		}
		metrics.PublishTotal.WithLabelValues(outcome).Inc()
		if err != nil {
			p.audit.Log(ctx, audit.Event{
				Category:      audit.CategoryVideo,
				EventType:     audit.EventPublishFailed,
				ActorEmail:    creator,
				CreatorEmail:  creator,
				VideoID:       &videoID,
				FailureReason: err.Error(),
			})
		}
	}()

	// 1. Ownership and state.
	v, err := p.load(ctx, op, videoID, creator)
	if err != nil {
		return Result{}, err
	}
	if !v.Uploaded() && v.Status != models.VideoApproved {
		return Result{}, apperr.Conflict(op, "video must be approved before publishing")
	}

	// 2-4. Fresh access credential, persisted before anything else.
	access, err := p.refresh(ctx, op, creator)
	if err != nil {
		return Result{}, err
	}

	// 5. One publisher per video; re-read inside the lock.
	owner := uuid.NewString()
	if err := p.locks.Acquire(ctx, v.ID, owner, p.lockTTL); err != nil {
		if errors.Is(err, uploadlockstore.ErrLocked) {
			return Result{}, apperr.Conflict(op, "publish already in progress")
		}
		return Result{}, err
	}
	defer func() {
		if rerr := p.locks.Release(context.WithoutCancel(ctx), v.ID, owner); rerr != nil {
			p.log.Warn("failed to release upload lock", zap.String("video_id", v.ID.Hex()), zap.Error(rerr))
		}
	}()

	v, err = p.load(ctx, op, videoID, creator)
	if err != nil {
		return Result{}, err
	}

	res = Result{VideoID: v.ID.Hex()}
	if v.Uploaded() {
		res.YouTubeID = *v.YouTubeID
	} else {
		// 6. The upload itself.
		ytID, err := p.upload(ctx, op, v, access)
		metrics.PublishDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			return Result{}, err
		}
		res.YouTubeID = ytID
		res.Uploaded = true
		p.log.Info("video uploaded to youtube",
			zap.String("video_id", v.ID.Hex()),
			zap.String("youtube_id", ytID),
			zap.Duration("elapsed", time.Since(started)))
	}

	// 7. Thumbnail never fails the publish.
	res.Thumbnail = p.thumbnail(ctx, v, access, res.YouTubeID)
	metrics.ThumbnailUploads.WithLabelValues(res.Thumbnail.Status).Inc()

	// 8. Tell the people involved.
	p.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventVideoPublished,
		ActorEmail:   creator,
		CreatorEmail: creator,
		SubjectEmail: v.EditedBy,
		VideoID:      &v.ID,
		Success:      true,
		Details: map[string]string{
			"youtube_id": res.YouTubeID,
			"uploaded":   fmt.Sprint(res.Uploaded),
			"thumbnail":  res.Thumbnail.Status,
		},
	})
	p.notifier.Notify(ctx, notify.Event{
		Kind:         notify.KindVideoPublished,
		To:           []string{creator, v.EditedBy},
		Actor:        creator,
		CreatorEmail: creator,
		EditorEmail:  v.EditedBy,
		VideoID:      v.ID.Hex(),
		VideoTitle:   v.Title,
		YouTubeID:    res.YouTubeID,
	})
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, op string, id primitive.ObjectID, creator string) (models.Video, error) {
	v, err := p.videos.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && v.CreatorEmail != creator) {
		return models.Video{}, apperr.NotFound(op, "video not found")
	}
	return v, err
}

func (p *Pipeline) refresh(ctx context.Context, op, creator string) (string, error) {
	cred, err := p.creds.Credentials(ctx, creator)
	if errors.Is(err, creatorstore.ErrNoCredentials) || errors.Is(err, mongo.ErrNoDocuments) ||
		(err == nil && cred.RefreshToken == "") {
		return "", apperr.Credential(op, "connect your YouTube channel first")
	}
	if err != nil {
		return "", err
	}

	fresh, err := p.platform.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", apperr.Authentication(op, "YouTube rejected the stored credential; reconnect your channel", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}
	if err := p.creds.SaveCredentials(ctx, creator, fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

func (p *Pipeline) upload(ctx context.Context, op string, v models.Video, access string) (string, error) {
	media, err := p.files.Open(ctx, v.FilePath)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return "", apperr.NotFound(op, "video file is missing")
		}
		return "", err
	}
	defer media.Close()

	ytID, err := p.platform.UploadVideo(ctx, access, youtube.VideoUpload{
		Title:       v.Title,
		Description: EnhancedDescription(v.Description, v.Tags),
		Tags:        v.Tags,
		Category:    v.Category,
		Privacy:     v.Privacy,
	}, media)
	if err != nil {
		return "", apperr.External(op, "upload to YouTube failed", err)
	}

	if err := p.videos.MarkPublished(ctx, v.ID, ytID); err != nil {
		if errors.Is(err, videostore.ErrAlreadyPublished) {
			return "", apperr.Conflict(op, "video was published concurrently")
		}
		p.log.Error("uploaded video could not be recorded",
			zap.String("video_id", v.ID.Hex()), zap.String("youtube_id", ytID), zap.Error(err))
		return "", err
	}
	return ytID, nil
}

func (p *Pipeline) thumbnail(ctx context.Context, v models.Video, access, ytID string) ThumbnailResult {
	if !v.HasThumbnail() {
		return ThumbnailResult{Status: ThumbnailSkipped, Reason: "no thumbnail"}
	}
	fail := func(reason string, err error) ThumbnailResult {
		p.log.Warn("thumbnail upload failed",
			zap.String("video_id", v.ID.Hex()), zap.String("reason", reason), zap.Error(err))
		return ThumbnailResult{Status: ThumbnailFailed, Reason: reason}
	}

	size, err := p.files.Size(ctx, v.ThumbnailPath)
	if err != nil {
		return fail("thumbnail file unavailable", err)
	}
	if size > models.MaxThumbnailBytes {
		return fail(fmt.Sprintf("thumbnail is %d bytes, limit is %d", size, models.MaxThumbnailBytes), nil)
	}
	img, err := p.files.Open(ctx, v.ThumbnailPath)
	if err != nil {
		return fail("thumbnail file unavailable", err)
	}
	defer img.Close()

	if err := p.platform.UploadThumbnail(ctx, access, ytID, img); err != nil {
		return fail("youtube rejected the thumbnail", err)
	}
	return ThumbnailResult{Status: ThumbnailUploaded}
}

// EnhancedDescription appends up to MaxHashtags hashtags built from tags.
func EnhancedDescription(description string, tags []string) string {
	seen := make(map[string]bool, len(tags))
	hashtags := make([]string, 0, MaxHashtags)
	for _, t := range tags {
		h := normalize.Hashtag(t)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		hashtags = append(hashtags, h)
		if len(hashtags) == MaxHashtags {
			break
		}
	}
	if len(hashtags) == 0 {
		return description
	}
	if description == "" {
		return strings.Join(hashtags, " ")
	}
	return description + "\n\n" + strings.Join(hashtags, " ")
}
