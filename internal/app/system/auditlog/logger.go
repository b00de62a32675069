// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration per event category.
// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
type Config struct {
	Team    string
	Video   string
	Channel string
}

// EventWriter persists audit events. *audit.Store satisfies it.
type EventWriter interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to MongoDB and to structured logs.
type Logger struct {
	store  EventWriter
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store EventWriter, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.ActorEmail != "" {
		fields = append(fields, zap.String("actor", event.ActorEmail))
	}
	if event.CreatorEmail != "" {
		fields = append(fields, zap.String("creator", event.CreatorEmail))
	}
	if event.SubjectEmail != "" {
		fields = append(fields, zap.String("subject", event.SubjectEmail))
	}
	if event.VideoID != nil {
		fields = append(fields, zap.String("video_id", event.VideoID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	var s string
	switch category {
	case audit.CategoryTeam:
		s = l.config.Team
	case audit.CategoryVideo:
		s = l.config.Video
	case audit.CategoryChannel:
		s = l.config.Channel
	}
	if s == "" {
		return "all"
	}
	return s
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op. Storage failures are logged and never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}

	if (setting == "all" || setting == "log") && l.zapLog != nil {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Recorder is the audit surface the workflow services depend on.
// *Logger satisfies it.
type Recorder interface {
	Log(ctx context.Context, event audit.Event)
}

type discard struct{}

func (discard) Log(context.Context, audit.Event) {}

// Discard drops every event.
var Discard Recorder = discard{}
