package events_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/features/events"
	"github.com/dalemusser/vidcollab/internal/app/system/presence"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestStream_DeliversPushedMessages(t *testing.T) {
	reg := presence.NewRegistry()
	r := chi.NewRouter()
	r.Mount("/api/events", events.Routes(events.NewHandler(reg, zap.NewNop())))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	req.Header.Set("X-Actor-Email", "ed@example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": connected" {
		t.Fatalf("first line = %q", lines.Text())
	}
	if !reg.Online("ed@example.com") {
		t.Fatal("stream not registered")
	}

	reg.Push("someone@example.com", presence.Message{Kind: "other", Payload: "x"})
	reg.Push("ed@example.com", presence.Message{Kind: "task_assigned", Payload: map[string]string{"title": "Intro"}})

	var got []string
	for lines.Scan() {
		if l := lines.Text(); l != "" {
			got = append(got, l)
		}
		if len(got) == 2 {
			break
		}
	}
	want := []string{"event: task_assigned", `data: {"title":"Intro"}`}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for reg.Online("ed@example.com") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reg.Online("ed@example.com") {
		t.Error("stream still registered after client left")
	}
}

func TestStream_RequiresActor(t *testing.T) {
	r := chi.NewRouter()
	r.Mount("/api/events", events.Routes(events.NewHandler(presence.NewRegistry(), zap.NewNop())))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rec.Code)
	}
}
