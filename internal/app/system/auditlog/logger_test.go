package auditlog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingWriter struct {
	events []audit.Event
	err    error
}

func (w *recordingWriter) Log(_ context.Context, e audit.Event) error {
	w.events = append(w.events, e)
	return w.err
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	logger.Log(context.Background(), audit.Event{EventType: "test"})
}

func TestLogger_Settings(t *testing.T) {
	tests := []struct {
		name     string
		setting  string
		wantDB   int
		wantLogs int
	}{
		{"all", "all", 1, 1},
		{"db", "db", 1, 0},
		{"log", "log", 0, 1},
		{"off", "off", 0, 0},
		{"empty defaults to all", "", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			w := &recordingWriter{}
			logger := auditlog.New(w, zap.New(core), auditlog.Config{Team: tt.setting})

			logger.Log(context.Background(), audit.Event{
				Category:     audit.CategoryTeam,
				EventType:    audit.EventEditorInvited,
				ActorEmail:   "creator@example.com",
				CreatorEmail: "creator@example.com",
				SubjectEmail: "editor@example.com",
				Success:      true,
			})

			if len(w.events) != tt.wantDB {
				t.Errorf("db events = %d, want %d", len(w.events), tt.wantDB)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("zap entries = %d, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	w := &recordingWriter{}
	logger := auditlog.New(w, zap.NewNop(), auditlog.Config{Team: "off", Video: "db", Channel: "db"})
	ctx := context.Background()

	logger.Log(ctx, audit.Event{Category: audit.CategoryTeam, EventType: audit.EventTaskAssigned})
	logger.Log(ctx, audit.Event{Category: audit.CategoryVideo, EventType: audit.EventVideoPublished})
	logger.Log(ctx, audit.Event{Category: audit.CategoryChannel, EventType: audit.EventChannelConnected})

	if len(w.events) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(w.events))
	}
	if w.events[0].EventType != audit.EventVideoPublished {
		t.Errorf("first stored event = %q", w.events[0].EventType)
	}
}

func TestLogger_StoreFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := &recordingWriter{err: errors.New("write failed")}
	logger := auditlog.New(w, zap.New(core), auditlog.Config{Video: "db"})

	logger.Log(context.Background(), audit.Event{Category: audit.CategoryVideo, EventType: audit.EventPublishFailed})

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected store failure to be logged")
	}
}
