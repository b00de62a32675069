// internal/app/services/youtube/client.go
//
// Package youtube wraps the Google OAuth2 flow and the YouTube Data API
// calls the publish pipeline needs.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// ErrMissingScope means the user did not grant upload access on the consent screen.
var ErrMissingScope = errors.New("youtube upload scope was not granted")

// Scopes requested when connecting a channel.
var Scopes = []string{
	"openid",
	oauth2api.UserinfoEmailScope,
	yt.YoutubeUploadScope,
	yt.YoutubeScope,
}

// VideoUpload carries the metadata sent with a new upload.
type VideoUpload struct {
	Title       string
	Description string
	Tags        []string
	Category    string
	Privacy     models.Privacy
}

// Client talks to Google on behalf of creators.
type Client struct {
	oauth *oauth2.Config
	opts  []option.ClientOption
}

// New builds a Client for the given OAuth application.
func New(clientID, clientSecret, redirectURL string, opts ...option.ClientOption) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		opts: opts,
	}
}

// Configured reports whether OAuth credentials are set.
func (c *Client) Configured() bool {
	return c.oauth.ClientID != "" && c.oauth.ClientSecret != ""
}

// AuthCodeURL returns the consent URL. Offline access plus forced consent
// makes Google return a refresh token on every connect.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for credentials and returns the
// Google account email they belong to.
func (c *Client) Exchange(ctx context.Context, code string) (models.Credentials, string, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return models.Credentials{}, "", fmt.Errorf("exchange code: %w", err)
	}
	if scope, ok := tok.Extra("scope").(string); ok && !hasScope(scope, yt.YoutubeUploadScope) {
		return models.Credentials{}, "", ErrMissingScope
	}

	svc, err := oauth2api.NewService(ctx, c.withToken(ctx, tok)...)
	if err != nil {
		return models.Credentials{}, "", err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return models.Credentials{}, "", fmt.Errorf("fetch user info: %w", err)
	}

	return toCredentials(tok), strings.ToLower(strings.TrimSpace(info.Email)), nil
}

// Refresh obtains a fresh access token. The returned RefreshToken is empty
// when Google did not rotate it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.Credentials, error) {
	ts := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return models.Credentials{}, err
	}
	cred := toCredentials(tok)
	if cred.RefreshToken == refreshToken {
		cred.RefreshToken = ""
	}
	return cred, nil
}

// UploadVideo inserts a new video and returns its YouTube id.
func (c *Client) UploadVideo(ctx context.Context, accessToken string, meta VideoUpload, media io.Reader) (string, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return "", err
	}

	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.Category,
			DefaultLanguage:      "en",
			DefaultAudioLanguage: "en",
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: string(meta.Privacy),
		},
	}

	res, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(media).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if res.Id == "" {
		return "", errors.New("youtube returned no video id")
	}
	return res.Id, nil
}

// UploadThumbnail sets a JPEG thumbnail on an existing video.
func (c *Client) UploadThumbnail(ctx context.Context, accessToken, youtubeID string, image io.Reader) error {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return err
	}
	_, err = svc.Thumbnails.Set(youtubeID).Media(image, googleapi.ContentType("image/jpeg")).Context(ctx).Do()
	return err
}

func (c *Client) service(ctx context.Context, accessToken string) (*yt.Service, error) {
	return yt.NewService(ctx, c.withToken(ctx, &oauth2.Token{AccessToken: accessToken})...)
}

func (c *Client) withToken(ctx context.Context, tok *oauth2.Token) []option.ClientOption {
	opts := append([]option.ClientOption{}, c.opts...)
	return append(opts, option.WithTokenSource(c.oauth.TokenSource(ctx, tok)))
}

func toCredentials(tok *oauth2.Token) models.Credentials {
	return models.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

func hasScope(granted, want string) bool {
	for _, s := range strings.Fields(granted) {
		if s == want {
			return true
		}
	}
	return false
}
