// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserType distinguishes which side of a collaboration wrote a comment.
type UserType string

const (
	UserCreator UserType = "creator"
	UserEditor  UserType = "editor"
)

// VideoComment is a review note on a video, optionally pinned to a
// timestamp in the media and optionally a reply to another comment.
type VideoComment struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	VideoID          primitive.ObjectID  `bson:"video_id" json:"video_id"`
	UserEmail        string              `bson:"user_email" json:"user_email"`
	UserType         UserType            `bson:"user_type" json:"user_type"`
	Text             string              `bson:"text" json:"text"`
	ParentCommentID  *primitive.ObjectID `bson:"parent_comment_id,omitempty" json:"parent_comment_id,omitempty"`
	TimestampSeconds *float64            `bson:"timestamp_seconds,omitempty" json:"timestamp_seconds,omitempty"`
	Resolved         bool                `bson:"resolved" json:"resolved"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updated_at"`
}
