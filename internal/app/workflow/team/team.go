// internal/app/workflow/team/team.go
//
// Package team manages which editors work for which creators and in what
// role. Memberships freeze the role's permission snapshot at invite time.
package team

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MembershipStore is the slice of the team store this service needs.
type MembershipStore interface {
	Upsert(ctx context.Context, creator, editor string, role models.Role, perms models.Permissions) (models.TeamMembership, error)
	Delete(ctx context.Context, creator, editor string, role models.Role) (bool, error)
	ListByCreator(ctx context.Context, creator string) ([]models.TeamMembership, error)
	ListActiveByCreator(ctx context.Context, creator string) ([]models.TeamMembership, error)
}

type EditorStore interface {
	Register(ctx context.Context, email string) (models.Editor, error)
	GetByEmail(ctx context.Context, email string) (models.Editor, error)
	List(ctx context.Context) ([]models.Editor, error)
	ListByEmails(ctx context.Context, emails []string) ([]models.Editor, error)
}

type CreatorStore interface {
	GetByEmail(ctx context.Context, email string) (models.Creator, error)
	Ensure(ctx context.Context, email string) (models.Creator, error)
	SetPrimaryEditor(ctx context.Context, email, editor string) error
}

type Service struct {
	members  MembershipStore
	editors  EditorStore
	creators CreatorStore
	notifier notify.Notifier
	audit    auditlog.Recorder
	log      *zap.Logger
}

func New(members MembershipStore, editors EditorStore, creators CreatorStore, n notify.Notifier, a auditlog.Recorder, log *zap.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	if a == nil {
		a = auditlog.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{members: members, editors: editors, creators: creators, notifier: n, audit: a, log: log}
}

// Member is a membership joined with the editor's reputation.
type Member struct {
	models.TeamMembership
	Reputation float64 `json:"reputation"`
	Rating     int     `json:"rating"`
	People     int     `json:"people"`
}

// AvailableEditor is a registered editor and the roles they already hold
// on the creator's team.
type AvailableEditor struct {
	Email      string        `json:"email"`
	Reputation float64       `json:"reputation"`
	Rating     int           `json:"rating"`
	People     int           `json:"people"`
	Roles      []models.Role `json:"roles"`
}

// Profile is the public view of a creator.
type Profile struct {
	Email         string     `json:"email"`
	Connected     bool       `json:"connected"`
	ConnectedAt   *time.Time `json:"connected_at,omitempty"`
	PrimaryEditor string     `json:"primary_editor,omitempty"`
}

// Invite adds editor to creator's team as role, or reactivates an existing
// membership for the same triple.
func (s *Service) Invite(ctx context.Context, creator, editor, role string) (models.TeamMembership, error) {
	const op = "team.Invite"
	creator = normalize.Email(creator)
	editor = normalize.Email(editor)

	r, ok := models.ParseRole(role)
	if !ok {
		return models.TeamMembership{}, apperr.Validation(op, "unknown role "+role)
	}
	if creator == "" || editor == "" {
		return models.TeamMembership{}, apperr.Validation(op, "creator and editor are required")
	}
	if creator == editor {
		return models.TeamMembership{}, apperr.Validation(op, "cannot invite yourself")
	}

	if _, err := s.editors.GetByEmail(ctx, editor); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.TeamMembership{}, apperr.NotFound(op, "editor must register first")
		}
		return models.TeamMembership{}, err
	}

	perms, _ := models.RolePermissions(r)
	m, err := s.members.Upsert(ctx, creator, editor, r, perms)
	if err != nil {
		return models.TeamMembership{}, err
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryTeam,
		EventType:    audit.EventEditorInvited,
		ActorEmail:   creator,
		CreatorEmail: creator,
		SubjectEmail: editor,
		Success:      true,
		Details:      map[string]string{"role": string(r)},
	})
	s.notifier.Notify(ctx, notify.Event{
		Kind:         notify.KindTeamInvite,
		To:           []string{editor},
		Actor:        creator,
		CreatorEmail: creator,
		EditorEmail:  editor,
		Role:         string(r),
	})
	return m, nil
}

// Remove hard-deletes the membership for the triple.
func (s *Service) Remove(ctx context.Context, creator, editor, role string) error {
	const op = "team.Remove"
	creator = normalize.Email(creator)
	editor = normalize.Email(editor)

	r, ok := models.ParseRole(role)
	if !ok {
		return apperr.Validation(op, "unknown role "+role)
	}
	deleted, err := s.members.Delete(ctx, creator, editor, r)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound(op, "membership not found")
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryTeam,
		EventType:    audit.EventMembershipRemoved,
		ActorEmail:   creator,
		CreatorEmail: creator,
		SubjectEmail: editor,
		Success:      true,
		Details:      map[string]string{"role": string(r)},
	})
	return nil
}

// ListForCreator returns every membership of creator, newest invite first.
func (s *Service) ListForCreator(ctx context.Context, creator string) ([]Member, error) {
	creator = normalize.Email(creator)
	ms, err := s.members.ListByCreator(ctx, creator)
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(ms))
	for _, m := range ms {
		emails = append(emails, m.EditorEmail)
	}
	eds, err := s.editors.ListByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]models.Editor, len(eds))
	for _, e := range eds {
		byEmail[e.Email] = e
	}

	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		e := byEmail[m.EditorEmail]
		out = append(out, Member{
			TeamMembership: m,
			Reputation:     e.Reputation(),
			Rating:         e.Rating,
			People:         e.People,
		})
	}
	return out, nil
}

// ListAvailableEditors returns all registered editors ranked by reputation,
// each with the roles they currently hold for creator.
func (s *Service) ListAvailableEditors(ctx context.Context, creator string) ([]AvailableEditor, error) {
	creator = normalize.Email(creator)
	eds, err := s.editors.List(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.members.ListActiveByCreator(ctx, creator)
	if err != nil {
		return nil, err
	}
	roles := make(map[string][]models.Role)
	for _, m := range active {
		roles[m.EditorEmail] = append(roles[m.EditorEmail], m.Role)
	}

	out := make([]AvailableEditor, 0, len(eds))
	for _, e := range eds {
		if e.Email == creator {
			continue
		}
		r := roles[e.Email]
		if r == nil {
			r = []models.Role{}
		}
		out = append(out, AvailableEditor{
			Email:      e.Email,
			Reputation: e.Reputation(),
			Rating:     e.Rating,
			People:     e.People,
			Roles:      r,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Reputation != out[j].Reputation {
			return out[i].Reputation > out[j].Reputation
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

// RegisterEditor creates the editor record if it does not exist.
func (s *Service) RegisterEditor(ctx context.Context, email string) (models.Editor, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.Editor{}, apperr.Validation("team.RegisterEditor", "email is required")
	}
	return s.editors.Register(ctx, email)
}

// SetPrimaryEditor records the creator's single primary editor. An empty
// editor clears it.
func (s *Service) SetPrimaryEditor(ctx context.Context, creator, editor string) error {
	const op = "team.SetPrimaryEditor"
	creator = normalize.Email(creator)
	editor = normalize.Email(editor)

	if editor != "" {
		if _, err := s.editors.GetByEmail(ctx, editor); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return apperr.NotFound(op, "editor must register first")
			}
			return err
		}
	}
	if _, err := s.creators.Ensure(ctx, creator); err != nil {
		return err
	}
	if err := s.creators.SetPrimaryEditor(ctx, creator, editor); err != nil {
		return err
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryTeam,
		EventType:    audit.EventPrimaryEditorSet,
		ActorEmail:   creator,
		CreatorEmail: creator,
		SubjectEmail: editor,
		Success:      true,
	})
	return nil
}

// Profile returns the creator's connection state and primary editor.
func (s *Service) Profile(ctx context.Context, creator string) (Profile, error) {
	creator = normalize.Email(creator)
	c, err := s.creators.GetByEmail(ctx, creator)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Profile{}, apperr.NotFound("team.Profile", "creator not found")
	}
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Email:         c.Email,
		Connected:     c.HasCredentials(),
		ConnectedAt:   c.ConnectedAt,
		PrimaryEditor: c.PrimaryEditor,
	}, nil
}
