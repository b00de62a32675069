// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryTeam    = "team"
	CategoryVideo   = "video"
	CategoryChannel = "channel"
)

// Team event types
const (
	EventEditorInvited     = "editor_invited"
	EventMembershipRemoved = "membership_removed"
	EventTaskAssigned      = "task_assigned"
	EventTaskStatusChanged = "task_status_changed"
	EventAssignmentRemoved = "assignment_removed"
	EventPrimaryEditorSet  = "primary_editor_set"
)

// Video event types
const (
	EventVideoUploaded  = "video_uploaded"
	EventMetadataEdited = "metadata_edited"
	EventMediaReplaced  = "media_replaced"
	EventVideoReady     = "video_ready_for_review"
	EventVideoApproved  = "video_approved"
	EventVideoPublished = "video_published"
	EventPublishFailed  = "publish_failed"
	EventVideoRated     = "video_rated"
	EventVideoDeleted   = "video_deleted"
	EventCommentAdded   = "comment_added"
	EventCommentDeleted = "comment_deleted"
)

// Channel event types
const (
	EventChannelConnected = "channel_connected"
	EventChannelRevoked   = "channel_revoked"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who: the actor performed the action on the creator's team or channel,
	// and the subject is the affected editor (if any).
	ActorEmail   string `bson:"actor_email,omitempty" json:"actor_email,omitempty"`
	CreatorEmail string `bson:"creator_email,omitempty" json:"creator_email,omitempty"`
	SubjectEmail string `bson:"subject_email,omitempty" json:"subject_email,omitempty"`

	VideoID *primitive.ObjectID `bson:"video_id,omitempty" json:"video_id,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	CreatorEmail string
	VideoID      *primitive.ObjectID
	Category     string
	EventType    string
	Since        *time.Time
	Limit        int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the filter, most recent first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.CreatorEmail != "" {
		query["creator_email"] = filter.CreatorEmail
	}
	if filter.VideoID != nil {
		query["video_id"] = *filter.VideoID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.Since != nil {
		query["timestamp"] = bson.M{"$gte": *filter.Since}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
