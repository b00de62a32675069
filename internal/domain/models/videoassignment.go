// internal/domain/models/videoassignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the lifecycle of a single assignment.
type TaskStatus string

const (
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// ParseTaskStatus converts s to a TaskStatus; ok is false for unknown values.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskAssigned, TaskInProgress, TaskCompleted:
		return TaskStatus(s), true
	}
	return "", false
}

// taskForward lists the moves an assignee may make on their own task.
// Staying in the same status is always allowed.
var taskForward = map[TaskStatus]map[TaskStatus]bool{
	TaskAssigned:   {TaskInProgress: true, TaskCompleted: true},
	TaskInProgress: {TaskCompleted: true},
	TaskCompleted:  {},
}

// CanAdvanceTask reports whether an assignee may move a task from one status to another.
func CanAdvanceTask(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	return taskForward[from][to]
}

// taskOrder ranks statuses for an editor's work queue: active work first.
var taskOrder = map[TaskStatus]int{
	TaskInProgress: 0,
	TaskAssigned:   1,
	TaskCompleted:  2,
}

// TaskRank returns the queue position of s; unknown statuses sort last.
func TaskRank(s TaskStatus) int {
	if r, ok := taskOrder[s]; ok {
		return r
	}
	return len(taskOrder)
}

// VideoAssignment is a per-video, per-editor, per-role task.
// Exactly one document per (video_id, editor_email, role).
type VideoAssignment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VideoID      primitive.ObjectID `bson:"video_id" json:"video_id"`
	CreatorEmail string             `bson:"creator_email" json:"creator_email"`
	EditorEmail  string             `bson:"editor_email" json:"editor_email"`
	Role         Role               `bson:"role" json:"role"`
	TaskStatus   TaskStatus         `bson:"task_status" json:"task_status"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AssignedAt   time.Time          `bson:"assigned_at" json:"assigned_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
