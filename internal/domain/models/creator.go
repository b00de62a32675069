// internal/domain/models/creator.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Creator owns videos and the YouTube channel they are published to.
// Email is the identity; it is stored folded (trimmed, lower-case).
type Creator struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email string             `bson:"email" json:"email"`

	// PrimaryEditor is the legacy single-editor affiliation. Team memberships
	// are authoritative for permissions; this is informational only.
	PrimaryEditor string `bson:"primary_editor,omitempty" json:"primary_editor,omitempty"`

	// Sealed credential pair (see system/tokencrypt). Never serialized to clients.
	AccessToken  []byte     `bson:"access_token,omitempty" json:"-"`
	RefreshToken []byte     `bson:"refresh_token,omitempty" json:"-"`
	TokenExpiry  *time.Time `bson:"token_expiry,omitempty" json:"-"`
	ConnectedAt  *time.Time `bson:"connected_at,omitempty" json:"connected_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasCredentials reports whether a refresh credential is on file.
func (c Creator) HasCredentials() bool {
	return len(c.RefreshToken) > 0
}

// Credentials is the unsealed OAuth credential pair for a creator's channel.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
