// internal/domain/models/teammembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of team roles an editor can hold for a creator.
type Role string

const (
	RoleVideoEditor       Role = "video_editor"
	RoleThumbnailDesigner Role = "thumbnail_designer"
	RoleMetadataManager   Role = "metadata_manager"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleVideoEditor, RoleThumbnailDesigner, RoleMetadataManager}

// ParseRole converts s to a Role. ok is false for anything outside the enum.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleVideoEditor, RoleThumbnailDesigner, RoleMetadataManager:
		return Role(s), true
	}
	return "", false
}

// Capability names a privileged action on a creator's videos.
type Capability string

const (
	CanDownloadVideos     Capability = "canDownloadVideos"
	CanUploadEditedVideos Capability = "canUploadEditedVideos"
	CanEditMetadata       Capability = "canEditMetadata"
	CanUploadThumbnails   Capability = "canUploadThumbnails"
)

// Permissions is the capability snapshot stored on a membership.
type Permissions struct {
	CanDownloadVideos     bool `bson:"can_download_videos" json:"canDownloadVideos"`
	CanUploadEditedVideos bool `bson:"can_upload_edited_videos" json:"canUploadEditedVideos"`
	CanEditMetadata       bool `bson:"can_edit_metadata" json:"canEditMetadata"`
	CanUploadThumbnails   bool `bson:"can_upload_thumbnails" json:"canUploadThumbnails"`
}

// Grants reports whether the snapshot allows c. Unknown capabilities are denied.
func (p Permissions) Grants(c Capability) bool {
	switch c {
	case CanDownloadVideos:
		return p.CanDownloadVideos
	case CanUploadEditedVideos:
		return p.CanUploadEditedVideos
	case CanEditMetadata:
		return p.CanEditMetadata
	case CanUploadThumbnails:
		return p.CanUploadThumbnails
	}
	return false
}

// RolePermissions returns the capability set a role receives at invite time.
// The table is fixed; memberships keep the snapshot they were created with.
func RolePermissions(r Role) (Permissions, bool) {
	switch r {
	case RoleVideoEditor:
		return Permissions{CanDownloadVideos: true, CanUploadEditedVideos: true}, true
	case RoleThumbnailDesigner:
		return Permissions{CanUploadThumbnails: true}, true
	case RoleMetadataManager:
		return Permissions{CanEditMetadata: true}, true
	}
	return Permissions{}, false
}

// MembershipStatus is "active" or "removed".
type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "active"
	MembershipRemoved MembershipStatus = "removed"
)

// TeamMembership affiliates an editor with a creator under one role.
// Exactly one document per (creator_email, editor_email, role).
type TeamMembership struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatorEmail string             `bson:"creator_email" json:"creator_email"`
	EditorEmail  string             `bson:"editor_email" json:"editor_email"`
	Role         Role               `bson:"role" json:"role"`
	Status       MembershipStatus   `bson:"status" json:"status"`
	Permissions  Permissions        `bson:"permissions" json:"permissions"`
	InvitedAt    time.Time          `bson:"invited_at" json:"invited_at"`
	JoinedAt     *time.Time         `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
}

// Active reports whether the membership currently grants anything.
func (m TeamMembership) Active() bool {
	return m.Status == MembershipActive
}
