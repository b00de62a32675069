package publish_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/services/youtube"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	creatorstore "github.com/dalemusser/vidcollab/internal/app/store/creators"
	uploadlockstore "github.com/dalemusser/vidcollab/internal/app/store/uploadlocks"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/filestore"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/app/system/tokencrypt"
	"github.com/dalemusser/vidcollab/internal/app/workflow/publish"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	creator = "c@example.com"
	editor  = "e@example.com"
)

// fakePlatform stands in for YouTube.
type fakePlatform struct {
	mu           sync.Mutex
	refreshErr   error
	uploadErr    error
	thumbErr     error
	rotate       string // new refresh token to hand out, if any
	uploads      int
	thumbnails   int
	lastMeta     youtube.VideoUpload
	lastMedia    string
	refreshCalls []string
	block        chan struct{} // when set, UploadVideo waits on it
}

func (f *fakePlatform) Refresh(_ context.Context, refreshToken string) (models.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls = append(f.refreshCalls, refreshToken)
	if f.refreshErr != nil {
		return models.Credentials{}, f.refreshErr
	}
	return models.Credentials{AccessToken: "fresh-access", RefreshToken: f.rotate, Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *fakePlatform) UploadVideo(_ context.Context, _ string, meta youtube.VideoUpload, media io.Reader) (string, error) {
	if f.block != nil {
		<-f.block
	}
	body, _ := io.ReadAll(media)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.lastMeta = meta
	f.lastMedia = string(body)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "yt-123", nil
}

func (f *fakePlatform) UploadThumbnail(_ context.Context, _, _ string, image io.Reader) error {
	_, _ = io.Copy(io.Discard, image)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbnails++
	return f.thumbErr
}

func (f *fakePlatform) counts() (uploads, thumbnails int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads, f.thumbnails
}

type env struct {
	pipeline *publish.Pipeline
	platform *fakePlatform
	videos   *videostore.Store
	creators *creatorstore.Store
	locks    *uploadlockstore.Store
	files    *filestore.Local
	fx       *testutil.Fixtures
	notes    *testutil.Notifications
	trail    *testutil.AuditTrail
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	sealer, err := tokencrypt.New(strings.Repeat("ef", 32))
	if err != nil {
		t.Fatalf("tokencrypt.New: %v", err)
	}
	files, err := filestore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	e := env{
		platform: &fakePlatform{},
		videos:   videostore.New(db),
		creators: creatorstore.New(db, sealer),
		locks:    uploadlockstore.New(db),
		files:    files,
		fx:       testutil.NewFixtures(t, db),
		notes:    &testutil.Notifications{},
		trail:    &testutil.AuditTrail{},
	}
	e.pipeline = publish.New(publish.Deps{
		Videos:      e.videos,
		Credentials: e.creators,
		Platform:    e.platform,
		Locks:       e.locks,
		Files:       files,
		Notifier:    e.notes,
		Audit:       e.trail,
	})
	return e
}

func (e env) connect(ctx context.Context, t *testing.T) {
	t.Helper()
	if err := e.creators.SaveCredentials(ctx, creator, models.Credentials{AccessToken: "old", RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
}

// video creates an approved video with stored media, edited by editor,
// and optionally a thumbnail of thumbSize bytes.
func (e env) video(ctx context.Context, t *testing.T, status models.VideoStatus, tags []string, thumbSize int) models.Video {
	t.Helper()
	v := e.fx.CreateVideo(ctx, creator, "Launch", status)

	media, err := e.files.Put(ctx, "videos", "launch.mp4", strings.NewReader("the footage"))
	if err != nil {
		t.Fatalf("Put media: %v", err)
	}
	desc := "Our launch video"
	u := videostore.Update{FilePath: &media, Description: &desc, Tags: &tags}
	ed := editor
	u.EditedBy = &ed
	if thumbSize > 0 {
		thumb, err := e.files.Put(ctx, "thumbnails", "t.jpg", bytes.NewReader(bytes.Repeat([]byte{1}, thumbSize)))
		if err != nil {
			t.Fatalf("Put thumbnail: %v", err)
		}
		u.ThumbnailPath = &thumb
	}
	if err := e.videos.Apply(ctx, v.ID, status, u); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v, err = e.videos.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return v
}

func TestPublish_UploadsOnce(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	v := e.video(ctx, t, models.VideoApproved, []string{"go", "live stream"}, 1024)

	res, err := e.pipeline.Publish(ctx, v.ID, creator)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !res.Uploaded || res.YouTubeID != "yt-123" || res.Thumbnail.Status != publish.ThumbnailUploaded {
		t.Errorf("result = %+v", res)
	}
	if e.platform.lastMedia != "the footage" {
		t.Errorf("uploaded media = %q", e.platform.lastMedia)
	}
	if want := "Our launch video\n\n#go #livestream"; e.platform.lastMeta.Description != want {
		t.Errorf("description = %q, want %q", e.platform.lastMeta.Description, want)
	}

	stored, _ := e.videos.GetByID(ctx, v.ID)
	if stored.Status != models.VideoPublished || !stored.Uploaded() || *stored.YouTubeID != "yt-123" || stored.PublishedAt == nil {
		t.Errorf("stored video = %+v", stored)
	}

	published := e.notes.OfKind(notify.KindVideoPublished)
	if len(published) != 1 || len(published[0].To) != 2 {
		t.Errorf("published notifications = %+v", published)
	}
	if !e.trail.Has(audit.EventVideoPublished) {
		t.Error("publish not audited")
	}

	// The access credential was refreshed and persisted.
	cred, err := e.creators.Credentials(ctx, creator)
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if cred.AccessToken != "fresh-access" || cred.RefreshToken != "refresh-1" {
		t.Errorf("stored credential = %+v", cred)
	}
}

// Publishing again returns the stored id without a second upload and
// still retries the thumbnail.
func TestPublish_AlreadyUploaded(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	v := e.video(ctx, t, models.VideoApproved, nil, 512)
	if err := e.videos.MarkPublished(ctx, v.ID, "yt-existing"); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}

	res, err := e.pipeline.Publish(ctx, v.ID, creator)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	uploads, thumbs := e.platform.counts()
	if uploads != 0 {
		t.Errorf("uploads = %d, want 0", uploads)
	}
	if thumbs != 1 || res.Thumbnail.Status != publish.ThumbnailUploaded {
		t.Errorf("thumbnail not retried: %d calls, %+v", thumbs, res.Thumbnail)
	}
	if res.Uploaded || res.YouTubeID != "yt-existing" {
		t.Errorf("result = %+v", res)
	}
}

func TestPublish_RotatedRefreshTokenIsStored(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	e.platform.rotate = "refresh-2"
	v := e.video(ctx, t, models.VideoApproved, nil, 0)

	if _, err := e.pipeline.Publish(ctx, v.ID, creator); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	cred, _ := e.creators.Credentials(ctx, creator)
	if cred.RefreshToken != "refresh-2" {
		t.Errorf("refresh token = %q, want rotated value", cred.RefreshToken)
	}
}

func TestPublish_Rejections(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	review := e.video(ctx, t, models.VideoReview, nil, 0)
	approved := e.video(ctx, t, models.VideoApproved, nil, 0)

	// Not connected yet.
	if _, err := e.pipeline.Publish(ctx, approved.ID, creator); !errors.Is(err, apperr.ErrCredential) {
		t.Errorf("unconnected Publish = %v, want credential error", err)
	}
	e.connect(ctx, t)

	if _, err := e.pipeline.Publish(ctx, review.ID, creator); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Publish from review = %v, want conflict", err)
	}
	if _, err := e.pipeline.Publish(ctx, approved.ID, editor); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("non-owner Publish = %v, want not found", err)
	}
	if _, err := e.pipeline.Publish(ctx, primitive.NewObjectID(), creator); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown video = %v, want not found", err)
	}
	if uploads, _ := e.platform.counts(); uploads != 0 {
		t.Errorf("rejected publishes uploaded %d times", uploads)
	}
	if !e.trail.Has(audit.EventPublishFailed) {
		t.Error("failures not audited")
	}
}

func TestPublish_RefreshRejected(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	e.platform.refreshErr = errors.New("invalid_grant")
	v := e.video(ctx, t, models.VideoApproved, nil, 0)

	_, err := e.pipeline.Publish(ctx, v.ID, creator)
	if !errors.Is(err, apperr.ErrAuthentication) || apperr.Retry(err) != apperr.RetryReauth {
		t.Fatalf("Publish = %v, want authentication error with reauth retry", err)
	}
	stored, _ := e.videos.GetByID(ctx, v.ID)
	if stored.Status != models.VideoApproved {
		t.Errorf("status = %s, want approved", stored.Status)
	}
}

func TestPublish_UploadFailureLeavesVideoApproved(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	e.platform.uploadErr = errors.New("quotaExceeded")
	v := e.video(ctx, t, models.VideoApproved, nil, 0)

	_, err := e.pipeline.Publish(ctx, v.ID, creator)
	if !errors.Is(err, apperr.ErrExternal) {
		t.Fatalf("Publish = %v, want external error", err)
	}
	stored, _ := e.videos.GetByID(ctx, v.ID)
	if stored.Uploaded() || stored.Status != models.VideoApproved {
		t.Errorf("video changed by failed upload: %+v", stored)
	}

	// The lock was released; a retry goes through.
	e.platform.uploadErr = nil
	if _, err := e.pipeline.Publish(ctx, v.ID, creator); err != nil {
		t.Errorf("retry Publish: %v", err)
	}
}

func TestPublish_LockedVideo(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	v := e.video(ctx, t, models.VideoApproved, nil, 0)

	if err := e.locks.Acquire(ctx, v.ID, "someone-else", time.Minute); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := e.pipeline.Publish(ctx, v.ID, creator); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Publish while locked = %v, want conflict", err)
	}
	if uploads, _ := e.platform.counts(); uploads != 0 {
		t.Errorf("uploaded %d times while locked", uploads)
	}
}

func TestPublish_ConcurrentCallsUploadOnce(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.connect(ctx, t)
	e.platform.block = make(chan struct{})
	v := e.video(ctx, t, models.VideoApproved, nil, 0)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.pipeline.Publish(ctx, v.ID, creator)
		}(i)
	}
	time.Sleep(200 * time.Millisecond)
	close(e.platform.block)
	wg.Wait()

	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, apperr.ErrConflict):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok < 1 {
		t.Error("no publish succeeded")
	}
	if uploads, _ := e.platform.counts(); uploads != 1 {
		t.Errorf("uploads = %d, want exactly 1", uploads)
	}
}

func TestPublish_Thumbnail(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		thumbErr  error
		want      string
		wantCalls int
	}{
		{"none stored", 0, nil, publish.ThumbnailSkipped, 0},
		{"over the limit", models.MaxThumbnailBytes + 1, nil, publish.ThumbnailFailed, 0},
		{"at the limit", models.MaxThumbnailBytes, nil, publish.ThumbnailUploaded, 1},
		{"rejected by youtube", 100, errors.New("forbidden"), publish.ThumbnailFailed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			e.connect(ctx, t)
			e.platform.thumbErr = tt.thumbErr
			v := e.video(ctx, t, models.VideoApproved, nil, tt.size)

			res, err := e.pipeline.Publish(ctx, v.ID, creator)
			if err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if res.Thumbnail.Status != tt.want {
				t.Errorf("thumbnail = %+v, want %s", res.Thumbnail, tt.want)
			}
			if tt.want == publish.ThumbnailFailed && res.Thumbnail.Reason == "" {
				t.Error("failed thumbnail has no reason")
			}
			if _, thumbs := e.platform.counts(); thumbs != tt.wantCalls {
				t.Errorf("thumbnail calls = %d, want %d", thumbs, tt.wantCalls)
			}
			if !res.Uploaded {
				t.Error("thumbnail outcome affected the upload")
			}
		})
	}
}

func TestEnhancedDescription(t *testing.T) {
	many := strings.Fields("a b c d e f g h i j k l m n o p q r s t")

	tests := []struct {
		name string
		desc string
		tags []string
		want string
	}{
		{"no tags", "plain", nil, "plain"},
		{"spaces removed", "d", []string{"behind the scenes"}, "d\n\n#behindthescenes"},
		{"duplicates dropped", "d", []string{"go", "g o", "#go"}, "d\n\n#go"},
		{"empty description", "", []string{"x"}, "#x"},
		{"blank tags ignored", "d", []string{"  ", "#"}, "d"},
		{"capped", "d", many, "d\n\n#a #b #c #d #e #f #g #h #i #j #k #l #m #n #o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publish.EnhancedDescription(tt.desc, tt.tags); got != tt.want {
				t.Errorf("EnhancedDescription = %q, want %q", got, tt.want)
			}
		})
	}
}
