// internal/app/workflow/tasks/tasks.go
//
// Package tasks is the per-video assignment ledger: which editor does which
// role's work on which video, and how far along it is.
package tasks

import (
	"context"
	"errors"
	"sort"

	assignmentstore "github.com/dalemusser/vidcollab/internal/app/store/assignments"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type AssignmentStore interface {
	Upsert(ctx context.Context, a models.VideoAssignment) (models.VideoAssignment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.VideoAssignment, error)
	ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]models.VideoAssignment, error)
	ListByEditor(ctx context.Context, editor string) ([]models.VideoAssignment, error)
	ListForEditorOnVideo(ctx context.Context, videoID primitive.ObjectID, editor string) ([]models.VideoAssignment, error)
	Counts(ctx context.Context, videoID primitive.ObjectID) (total, completed int64, err error)
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.TaskStatus, notes *string) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type VideoReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Video, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error)
}

// MembershipReader looks up one membership by its exact triple.
type MembershipReader interface {
	Get(ctx context.Context, creator, editor string, role models.Role) (models.TeamMembership, error)
}

type Service struct {
	assignments AssignmentStore
	videos      VideoReader
	members     MembershipReader
	notifier    notify.Notifier
	audit       auditlog.Recorder
	log         *zap.Logger
}

func New(assignments AssignmentStore, videos VideoReader, members MembershipReader, n notify.Notifier, a auditlog.Recorder, log *zap.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	if a == nil {
		a = auditlog.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{assignments: assignments, videos: videos, members: members, notifier: n, audit: a, log: log}
}

// EditorTask is an assignment with the video details an editor's work
// queue shows.
type EditorTask struct {
	models.VideoAssignment
	VideoTitle       string             `json:"video_title"`
	VideoDescription string             `json:"video_description"`
	VideoStatus      models.VideoStatus `json:"video_status"`
}

func (s *Service) video(ctx context.Context, op string, id primitive.ObjectID) (models.Video, error) {
	v, err := s.videos.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Video{}, apperr.NotFound(op, "video not found")
	}
	return v, err
}

func (s *Service) assignment(ctx context.Context, op string, id primitive.ObjectID) (models.VideoAssignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.VideoAssignment{}, apperr.NotFound(op, "assignment not found")
	}
	return a, err
}

// Assign gives editor the role's task on a video the actor owns. The editor
// must hold an active membership for exactly that role.
func (s *Service) Assign(ctx context.Context, actor string, videoID primitive.ObjectID, editor, role, notes string) (models.VideoAssignment, error) {
	const op = "tasks.Assign"
	actor = normalize.Email(actor)
	editor = normalize.Email(editor)

	r, ok := models.ParseRole(role)
	if !ok {
		return models.VideoAssignment{}, apperr.Validation(op, "unknown role "+role)
	}
	if editor == "" {
		return models.VideoAssignment{}, apperr.Validation(op, "editor is required")
	}

	v, err := s.video(ctx, op, videoID)
	if err != nil {
		return models.VideoAssignment{}, err
	}
	if v.CreatorEmail != actor {
		return models.VideoAssignment{}, apperr.Authorization(op, "only the video's creator can assign tasks")
	}
	if v.Status == models.VideoPublished {
		return models.VideoAssignment{}, apperr.Conflict(op, "video is already published")
	}

	m, err := s.members.Get(ctx, v.CreatorEmail, editor, r)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !m.Active()) {
		return models.VideoAssignment{}, apperr.Authorization(op, "editor is not on the team as "+string(r))
	}
	if err != nil {
		return models.VideoAssignment{}, err
	}

	a, err := s.assignments.Upsert(ctx, models.VideoAssignment{
		VideoID:      v.ID,
		CreatorEmail: v.CreatorEmail,
		EditorEmail:  editor,
		Role:         r,
		Notes:        htmlsanitize.PlainText(notes),
	})
	if err != nil {
		return models.VideoAssignment{}, err
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryTeam,
		EventType:    audit.EventTaskAssigned,
		ActorEmail:   actor,
		CreatorEmail: v.CreatorEmail,
		SubjectEmail: editor,
		VideoID:      &v.ID,
		Success:      true,
		Details:      map[string]string{"role": string(r)},
	})
	s.notifier.Notify(ctx, notify.Event{
		Kind:         notify.KindTaskAssigned,
		To:           []string{editor},
		Actor:        actor,
		CreatorEmail: v.CreatorEmail,
		EditorEmail:  editor,
		VideoID:      v.ID.Hex(),
		VideoTitle:   v.Title,
		Role:         string(r),
		Message:      a.Notes,
	})
	return a, nil
}

// SetStatus changes one assignment's status. notes replaces the notes when non-nil.
func (s *Service) SetStatus(ctx context.Context, actor string, id primitive.ObjectID, status string, notes *string) (models.VideoAssignment, error) {
	const op = "tasks.SetStatus"
	to, ok := models.ParseTaskStatus(status)
	if !ok {
		return models.VideoAssignment{}, apperr.Validation(op, "invalid status "+status)
	}
	a, err := s.assignment(ctx, op, id)
	if err != nil {
		return models.VideoAssignment{}, err
	}
	if notes != nil {
		clean := htmlsanitize.PlainText(*notes)
		notes = &clean
	}
	return s.transition(ctx, op, normalize.Email(actor), a, to, notes)
}

// SetStatusForEditor changes every assignment editor holds on the video.
func (s *Service) SetStatusForEditor(ctx context.Context, actor string, videoID primitive.ObjectID, editor, status string) ([]models.VideoAssignment, error) {
	const op = "tasks.SetStatusForEditor"
	to, ok := models.ParseTaskStatus(status)
	if !ok {
		return nil, apperr.Validation(op, "invalid status "+status)
	}
	list, err := s.assignments.ListForEditorOnVideo(ctx, videoID, normalize.Email(editor))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound(op, "assignment not found")
	}

	actor = normalize.Email(actor)
	out := make([]models.VideoAssignment, 0, len(list))
	for _, a := range list {
		updated, err := s.transition(ctx, op, actor, a, to, nil)
		if err != nil {
			return out, err
		}
		out = append(out, updated)
	}
	return out, nil
}

// transition applies the actor rules: the creator may set any status, the
// assignee may only move forward, nobody else may touch the task.
func (s *Service) transition(ctx context.Context, op, actor string, a models.VideoAssignment, to models.TaskStatus, notes *string) (models.VideoAssignment, error) {
	v, err := s.video(ctx, op, a.VideoID)
	if err != nil {
		return models.VideoAssignment{}, err
	}

	switch actor {
	case v.CreatorEmail:
	case a.EditorEmail:
		if !models.CanAdvanceTask(a.TaskStatus, to) {
			return models.VideoAssignment{}, apperr.Conflict(op, "cannot move task from "+string(a.TaskStatus)+" to "+string(to))
		}
	default:
		return models.VideoAssignment{}, apperr.Authorization(op, "only the creator or the assignee can update this task")
	}
	if v.Status == models.VideoPublished {
		return models.VideoAssignment{}, apperr.Conflict(op, "video is already published")
	}

	if err := s.assignments.SetStatus(ctx, a.ID, a.TaskStatus, to, notes); err != nil {
		if errors.Is(err, assignmentstore.ErrStatusChanged) {
			return models.VideoAssignment{}, apperr.Conflict(op, "task was updated concurrently")
		}
		return models.VideoAssignment{}, err
	}

	from := a.TaskStatus
	a.TaskStatus = to
	if notes != nil {
		a.Notes = *notes
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryTeam,
		EventType:    audit.EventTaskStatusChanged,
		ActorEmail:   actor,
		CreatorEmail: v.CreatorEmail,
		SubjectEmail: a.EditorEmail,
		VideoID:      &v.ID,
		Success:      true,
		Details:      map[string]string{"role": string(a.Role), "from": string(from), "to": string(to)},
	})
	if to == models.TaskCompleted && from != models.TaskCompleted {
		s.notifier.Notify(ctx, notify.Event{
			Kind:         notify.KindTaskCompleted,
			To:           []string{v.CreatorEmail},
			Actor:        actor,
			CreatorEmail: v.CreatorEmail,
			EditorEmail:  a.EditorEmail,
			VideoID:      v.ID.Hex(),
			VideoTitle:   v.Title,
			Role:         string(a.Role),
		})
	}
	return a, nil
}

// Remove hard-deletes an assignment. Only the video's creator may do it.
func (s *Service) Remove(ctx context.Context, actor string, id primitive.ObjectID) error {
	const op = "tasks.Remove"
	a, err := s.assignment(ctx, op, id)
	if err != nil {
		return err
	}
	actor = normalize.Email(actor)
	if a.CreatorEmail != actor {
		return apperr.Authorization(op, "only the video's creator can remove tasks")
	}
	deleted, err := s.assignments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound(op, "assignment not found")
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryTeam,
		EventType:    audit.EventAssignmentRemoved,
		ActorEmail:   actor,
		CreatorEmail: a.CreatorEmail,
		SubjectEmail: a.EditorEmail,
		VideoID:      &a.VideoID,
		Success:      true,
		Details:      map[string]string{"role": string(a.Role)},
	})
	return nil
}

// ListForVideo returns the video's assignments to its creator or to anyone
// assigned to it.
func (s *Service) ListForVideo(ctx context.Context, actor string, videoID primitive.ObjectID) ([]models.VideoAssignment, error) {
	const op = "tasks.ListForVideo"
	v, err := s.video(ctx, op, videoID)
	if err != nil {
		return nil, err
	}
	list, err := s.assignments.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	actor = normalize.Email(actor)
	if actor == v.CreatorEmail {
		return list, nil
	}
	for _, a := range list {
		if a.EditorEmail == actor {
			return list, nil
		}
	}
	return nil, apperr.Authorization(op, "not assigned to this video")
}

// ListForEditor returns the editor's work queue: in progress first, then
// assigned, then completed, newest assignment first within each group.
func (s *Service) ListForEditor(ctx context.Context, editor string) ([]EditorTask, error) {
	list, err := s.assignments.ListByEditor(ctx, normalize.Email(editor))
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(list))
	seen := make(map[primitive.ObjectID]bool, len(list))
	for _, a := range list {
		if !seen[a.VideoID] {
			seen[a.VideoID] = true
			ids = append(ids, a.VideoID)
		}
	}
	vids, err := s.videos.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Video, len(vids))
	for _, v := range vids {
		byID[v.ID] = v
	}

	out := make([]EditorTask, 0, len(list))
	for _, a := range list {
		v, ok := byID[a.VideoID]
		if !ok {
			continue
		}
		out = append(out, EditorTask{
			VideoAssignment:  a,
			VideoTitle:       v.Title,
			VideoDescription: v.Description,
			VideoStatus:      v.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := models.TaskRank(out[i].TaskStatus), models.TaskRank(out[j].TaskStatus)
		if ri != rj {
			return ri < rj
		}
		return out[i].AssignedAt.After(out[j].AssignedAt)
	})
	return out, nil
}

// AllCompleted reports whether the video has at least one assignment and
// every one of them is completed.
func (s *Service) AllCompleted(ctx context.Context, videoID primitive.ObjectID) (bool, error) {
	total, completed, err := s.assignments.Counts(ctx, videoID)
	if err != nil {
		return false, err
	}
	return total > 0 && total == completed, nil
}
