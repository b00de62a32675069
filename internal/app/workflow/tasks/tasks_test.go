package tasks_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	assignmentstore "github.com/dalemusser/vidcollab/internal/app/store/assignments"
	editorstore "github.com/dalemusser/vidcollab/internal/app/store/editors"
	teamstore "github.com/dalemusser/vidcollab/internal/app/store/teams"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/app/workflow/tasks"
	"github.com/dalemusser/vidcollab/internal/app/workflow/team"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	creator = "c@example.com"
	editor  = "e@example.com"
)

type env struct {
	svc   *tasks.Service
	store *assignmentstore.Store
	fx    *testutil.Fixtures
	notes *testutil.Notifications
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	e := env{
		store: assignmentstore.New(db),
		fx:    testutil.NewFixtures(t, db),
		notes: &testutil.Notifications{},
	}
	e.svc = tasks.New(e.store, videostore.New(db), teamstore.New(db), e.notes, nil, nil)
	return e
}

// An invite grants exactly the invited role; assigning another role fails.
func TestAssign_RequiresMembershipForRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	members := teamstore.New(db)
	notes := &testutil.Notifications{}
	teams := team.New(members, editorstore.New(db), nil, notes, nil, nil)
	svc := tasks.New(assignmentstore.New(db), videostore.New(db), members, notes, nil, nil)

	fx.CreateEditor(ctx, editor, 0, 0)
	v := fx.CreateVideo(ctx, creator, "v1", models.VideoDraft)

	if _, err := teams.Invite(ctx, creator, editor, string(models.RoleVideoEditor)); err != nil {
		t.Fatalf("Invite: %v", err)
	}
	a, err := svc.Assign(ctx, creator, v.ID, editor, string(models.RoleVideoEditor), "cut the intro")
	if err != nil {
		t.Fatalf("Assign(video_editor): %v", err)
	}
	if a.TaskStatus != models.TaskAssigned || a.Notes != "cut the intro" {
		t.Errorf("assignment = %+v", a)
	}

	_, err = svc.Assign(ctx, creator, v.ID, editor, string(models.RoleThumbnailDesigner), "")
	if !errors.Is(err, apperr.ErrAuthorization) {
		t.Fatalf("Assign(thumbnail_designer) = %v, want authorization error", err)
	}

	if got := notes.OfKind(notify.KindTaskAssigned); len(got) != 1 || got[0].VideoTitle != "v1" {
		t.Errorf("task notifications = %+v", got)
	}
}

func TestAssign_Guards(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoDraft)
	published := e.fx.CreateVideo(ctx, creator, "done", models.VideoPublished)
	e.fx.CreateMembership(ctx, creator, editor, models.RoleVideoEditor)

	tests := []struct {
		name  string
		actor string
		video primitive.ObjectID
		role  string
		want  error
	}{
		{"non-owner", "intruder@example.com", v.ID, "video_editor", apperr.ErrAuthorization},
		{"published video", creator, published.ID, "video_editor", apperr.ErrConflict},
		{"unknown video", creator, primitive.NewObjectID(), "video_editor", apperr.ErrNotFound},
		{"bad role", creator, v.ID, "producer", apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Assign(ctx, tt.actor, tt.video, editor, tt.role, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("Assign = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAssign_SanitizesNotesAndResetsOnReassign(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoEditing)
	e.fx.CreateMembership(ctx, creator, editor, models.RoleVideoEditor)
	done := e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskCompleted)

	a, err := e.svc.Assign(ctx, creator, v.ID, editor, "video_editor", `<script>x()</script>trim <b>silence</b>`)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.ID != done.ID {
		t.Errorf("reassign created a new assignment")
	}
	if a.TaskStatus != models.TaskAssigned {
		t.Errorf("status = %s, want assigned", a.TaskStatus)
	}
	if strings.Contains(a.Notes, "<") {
		t.Errorf("notes not sanitized: %q", a.Notes)
	}
}

func TestSetStatus_ActorRules(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoEditing)
	a := e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskAssigned)

	if _, err := e.svc.SetStatus(ctx, "other@example.com", a.ID, "in_progress", nil); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger SetStatus = %v, want authorization", err)
	}
	if _, err := e.svc.SetStatus(ctx, editor, a.ID, "done", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad status = %v, want validation", err)
	}

	notes := "halfway"
	got, err := e.svc.SetStatus(ctx, editor, a.ID, "in_progress", &notes)
	if err != nil {
		t.Fatalf("editor forward move: %v", err)
	}
	if got.TaskStatus != models.TaskInProgress || got.Notes != "halfway" {
		t.Errorf("after move: %+v", got)
	}

	if _, err := e.svc.SetStatus(ctx, editor, a.ID, "assigned", nil); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("editor backward move = %v, want conflict", err)
	}

	if _, err := e.svc.SetStatus(ctx, editor, a.ID, "completed", nil); err != nil {
		t.Fatalf("editor completes: %v", err)
	}
	if got := e.notes.OfKind(notify.KindTaskCompleted); len(got) != 1 || got[0].To[0] != creator {
		t.Errorf("completion notifications = %+v", got)
	}

	// The creator may reset.
	if _, err := e.svc.SetStatus(ctx, creator, a.ID, "assigned", nil); err != nil {
		t.Errorf("creator reset: %v", err)
	}
}

func TestSetStatus_PublishedVideoIsFrozen(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoPublished)
	a := e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskInProgress)

	if _, err := e.svc.SetStatus(ctx, creator, a.ID, "completed", nil); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("SetStatus on published video = %v, want conflict", err)
	}
}

func TestSetStatusForEditor(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoEditing)
	e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskAssigned)
	e.fx.CreateAssignment(ctx, v, editor, models.RoleMetadataManager, models.TaskInProgress)

	got, err := e.svc.SetStatusForEditor(ctx, editor, v.ID, editor, "completed")
	if err != nil {
		t.Fatalf("SetStatusForEditor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("updated %d assignments, want 2", len(got))
	}
	done, err := e.svc.AllCompleted(ctx, v.ID)
	if err != nil || !done {
		t.Errorf("AllCompleted = %v, %v; want true", done, err)
	}

	if _, err := e.svc.SetStatusForEditor(ctx, creator, v.ID, "nobody@example.com", "completed"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("no assignments = %v, want not found", err)
	}
}

func TestAllCompleted(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoReview)
	if done, _ := e.svc.AllCompleted(ctx, v.ID); done {
		t.Error("a video with no assignments reported all completed")
	}
	e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskCompleted)
	open := e.fx.CreateAssignment(ctx, v, "f@example.com", models.RoleThumbnailDesigner, models.TaskAssigned)
	if done, _ := e.svc.AllCompleted(ctx, v.ID); done {
		t.Error("reported completed with an open assignment")
	}
	if _, err := e.svc.SetStatus(ctx, creator, open.ID, "completed", nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if done, _ := e.svc.AllCompleted(ctx, v.ID); !done {
		t.Error("expected all completed")
	}
}

func TestRemove(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoEditing)
	a := e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskAssigned)

	if err := e.svc.Remove(ctx, editor, a.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("editor Remove = %v, want authorization", err)
	}
	if err := e.svc.Remove(ctx, creator, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := e.svc.Remove(ctx, creator, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Remove = %v, want not found", err)
	}
}

func TestListForVideo_Visibility(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v := e.fx.CreateVideo(ctx, creator, "v1", models.VideoEditing)
	e.fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskAssigned)

	for _, actor := range []string{creator, editor} {
		list, err := e.svc.ListForVideo(ctx, actor, v.ID)
		if err != nil || len(list) != 1 {
			t.Errorf("ListForVideo(%s) = %d, %v", actor, len(list), err)
		}
	}
	if _, err := e.svc.ListForVideo(ctx, "stranger@example.com", v.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger ListForVideo = %v, want authorization", err)
	}
}

func TestListForEditor_Order(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v1 := e.fx.CreateVideo(ctx, creator, "first", models.VideoEditing)
	v2 := e.fx.CreateVideo(ctx, creator, "second", models.VideoEditing)
	v3 := e.fx.CreateVideo(ctx, creator, "third", models.VideoEditing)

	e.fx.CreateAssignment(ctx, v1, editor, models.RoleVideoEditor, models.TaskCompleted)
	time.Sleep(5 * time.Millisecond)
	e.fx.CreateAssignment(ctx, v2, editor, models.RoleVideoEditor, models.TaskAssigned)
	time.Sleep(5 * time.Millisecond)
	e.fx.CreateAssignment(ctx, v3, editor, models.RoleVideoEditor, models.TaskInProgress)
	time.Sleep(5 * time.Millisecond)
	e.fx.CreateAssignment(ctx, v1, editor, models.RoleMetadataManager, models.TaskAssigned)

	got, err := e.svc.ListForEditor(ctx, editor)
	if err != nil {
		t.Fatalf("ListForEditor: %v", err)
	}
	var order []string
	for _, task := range got {
		order = append(order, task.VideoTitle+"/"+string(task.TaskStatus))
	}
	want := "third/in_progress,first/assigned,second/assigned,first/completed"
	if strings.Join(order, ",") != want {
		t.Errorf("order = %v, want %s", order, want)
	}
}
