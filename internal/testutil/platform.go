package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/services/youtube"
	"github.com/dalemusser/vidcollab/internal/domain/models"
)

// FakePlatform records publish calls in place of the YouTube client.
type FakePlatform struct {
	mu         sync.Mutex
	Err        error // returned by UploadVideo when set
	YouTubeID  string
	uploads    int
	thumbnails int
}

func (f *FakePlatform) Refresh(_ context.Context, refreshToken string) (models.Credentials, error) {
	return models.Credentials{AccessToken: "access-" + refreshToken, Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *FakePlatform) UploadVideo(_ context.Context, _ string, _ youtube.VideoUpload, media io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, media)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.Err != nil {
		return "", f.Err
	}
	if f.YouTubeID == "" {
		return "yt-fake", nil
	}
	return f.YouTubeID, nil
}

func (f *FakePlatform) UploadThumbnail(_ context.Context, _, _ string, image io.Reader) error {
	_, _ = io.Copy(io.Discard, image)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thumbnails++
	return nil
}

// Uploads returns how many video uploads were attempted.
func (f *FakePlatform) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// Thumbnails returns how many thumbnail uploads were attempted.
func (f *FakePlatform) Thumbnails() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thumbnails
}
