package analytics_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/features/analytics"
	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/store/queries/analyticsqueries"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"github.com/dalemusser/vidcollab/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	creator = "creator@example.com"
	editor  = "ed@example.com"
)

func setup(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := analytics.NewHandler(db, uierrors.NewErrorLogger(logger), logger)
	r := chi.NewRouter()
	r.Mount("/api/analytics", analytics.Routes(h))
	return r, testutil.NewFixtures(t, db)
}

func get(r http.Handler, target, as string) *testutil.ResponseRecorder {
	req := testutil.NewRequest(http.MethodGet, target)
	if as != "" {
		req.Header.Set("X-Actor-Email", as)
	}
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreatorReport(t *testing.T) {
	r, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateVideo(ctx, creator, "one", models.VideoDraft)
	fx.CreateVideo(ctx, creator, "two", models.VideoDraft)
	fx.CreateVideo(ctx, "other@example.com", "three", models.VideoDraft)

	rec := get(r, "/api/analytics/creator/"+creator+"?period=7", creator)
	rec.AssertStatus(t, http.StatusOK)
	var rep analyticsqueries.CreatorReport
	rec.DecodeJSON(t, &rep)
	var total int64
	for _, b := range rep.StatusDistribution {
		total += b.Count
	}
	if total != 2 {
		t.Errorf("status distribution = %+v, want 2 videos", rep.StatusDistribution)
	}
}

func TestEditorReport(t *testing.T) {
	r, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateEditor(ctx, editor, 0, 0)
	fx.CreateMembership(ctx, creator, editor, models.RoleVideoEditor)
	v := fx.CreateVideo(ctx, creator, "one", models.VideoDraft)
	fx.CreateAssignment(ctx, v, editor, models.RoleVideoEditor, models.TaskCompleted)

	rec := get(r, "/api/analytics/editor/"+editor, editor)
	rec.AssertStatus(t, http.StatusOK)
	var rep analyticsqueries.EditorReport
	rec.DecodeJSON(t, &rep)
	if len(rep.TopCreators) != 1 || rep.TopCreators[0].Key != creator {
		t.Errorf("top creators = %+v", rep.TopCreators)
	}
}

func TestReports_Rejections(t *testing.T) {
	r, _ := setup(t)
	tests := []struct {
		name   string
		target string
		as     string
		want   int
	}{
		{"anonymous", "/api/analytics/creator/" + creator, "", http.StatusUnauthorized},
		{"someone else", "/api/analytics/creator/" + creator, editor, http.StatusForbidden},
		{"editor report of another", "/api/analytics/editor/" + editor, creator, http.StatusForbidden},
		{"period zero", "/api/analytics/creator/" + creator + "?period=0", creator, http.StatusBadRequest},
		{"period too long", "/api/analytics/editor/" + editor + "?period=1000", editor, http.StatusBadRequest},
		{"period not a number", "/api/analytics/creator/" + creator + "?period=week", creator, http.StatusBadRequest},
		{"unknown category", "/api/analytics/creator/" + creator + "/activity?category=billing", creator, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			get(r, tt.target, tt.as).AssertStatus(t, tt.want)
		})
	}
}

func TestActivity(t *testing.T) {
	r, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := audit.New(fx.DB())
	now := time.Now().UTC()
	events := []audit.Event{
		{Timestamp: now.Add(-2 * time.Minute), Category: audit.CategoryTeam, EventType: audit.EventEditorInvited, CreatorEmail: creator, SubjectEmail: editor, Success: true},
		{Timestamp: now.Add(-time.Minute), Category: audit.CategoryVideo, EventType: audit.EventVideoUploaded, CreatorEmail: creator, Success: true},
		{Timestamp: now, Category: audit.CategoryVideo, EventType: audit.EventVideoUploaded, CreatorEmail: "other@example.com", Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	rec := get(r, "/api/analytics/creator/"+creator+"/activity", creator)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Events []audit.Event `json:"events"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(body.Events))
	}
	if body.Events[0].EventType != audit.EventVideoUploaded {
		t.Errorf("first event = %q, want newest first", body.Events[0].EventType)
	}

	rec = get(r, "/api/analytics/creator/"+creator+"/activity?category=team&limit=5", creator)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 1 || body.Events[0].Category != audit.CategoryTeam {
		t.Errorf("team events = %+v", body.Events)
	}
}
