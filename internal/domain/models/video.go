// internal/domain/models/video.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VideoStatus is the authoritative lifecycle of a video.
type VideoStatus string

const (
	VideoDraft     VideoStatus = "draft"
	VideoEditing   VideoStatus = "editing"
	VideoReview    VideoStatus = "review"
	VideoApproved  VideoStatus = "approved"
	VideoPublished VideoStatus = "published"
)

// videoTransitions is the legal status graph. Guards (who may trigger a
// move, aggregate task state) live in the workflow services.
var videoTransitions = map[VideoStatus]map[VideoStatus]bool{
	VideoDraft:     {VideoEditing: true, VideoReview: true},
	VideoEditing:   {VideoReview: true},
	VideoReview:    {VideoApproved: true},
	VideoApproved:  {VideoPublished: true},
	VideoPublished: {},
}

// CanTransition reports whether the graph has an edge from -> to.
func CanTransition(from, to VideoStatus) bool {
	return videoTransitions[from][to]
}

// Privacy is the YouTube privacy status applied at upload.
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyPrivate  Privacy = "private"
	PrivacyUnlisted Privacy = "unlisted"
)

// ParsePrivacy converts s to a Privacy; ok is false for unknown values.
func ParsePrivacy(s string) (Privacy, bool) {
	switch Privacy(s) {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return Privacy(s), true
	}
	return "", false
}

// DefaultCategory is YouTube's "People & Blogs".
const DefaultCategory = "22"

// MaxThumbnailBytes is YouTube's thumbnail size limit.
const MaxThumbnailBytes = 2 << 20

// Video is a media item owned by one creator.
// YouTubeID is set exactly once, by the publish pipeline; its presence
// means the external upload already happened.
type Video struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatorEmail string             `bson:"creator_email" json:"creator_email"`

	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description" json:"description"`
	Tags        []string `bson:"tags" json:"tags"`
	Category    string   `bson:"category" json:"category"`
	Privacy     Privacy  `bson:"privacy" json:"privacy"`

	Status        VideoStatus `bson:"status" json:"status"`
	YouTubeID     *string     `bson:"youtube_id,omitempty" json:"youtube_id,omitempty"`
	EditedBy      string      `bson:"edited_by,omitempty" json:"edited_by,omitempty"`
	FilePath      string      `bson:"file_path" json:"-"`
	ThumbnailPath string      `bson:"thumbnail_path,omitempty" json:"-"`
	Rating        int         `bson:"rating,omitempty" json:"rating,omitempty"`

	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Uploaded reports whether the external upload has been recorded.
func (v Video) Uploaded() bool {
	return v.YouTubeID != nil && *v.YouTubeID != ""
}

// HasThumbnail reports whether a thumbnail has been stored.
func (v Video) HasThumbnail() bool {
	return v.ThumbnailPath != ""
}
