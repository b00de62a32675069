// internal/app/system/notify/notify.go
//
// Package notify fans domain notifications out to email, the event bus and
// live push streams. Delivery is best effort: Notify never reports failure
// to the caller.
package notify

import (
	"context"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/system/metrics"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Kind names a notification.
type Kind string

const (
	KindTeamInvite     Kind = "team_invite"
	KindTaskAssigned   Kind = "task_assigned"
	KindTaskCompleted  Kind = "task_completed"
	KindVideoReady     Kind = "video_ready"
	KindVideoPublished Kind = "video_published"
	KindNewComment     Kind = "new_comment"
)

// Event is one notification addressed to one or more identities.
type Event struct {
	Kind         Kind     `json:"kind"`
	To           []string `json:"to"`
	Actor        string   `json:"actor,omitempty"`
	CreatorEmail string   `json:"creator_email,omitempty"`
	EditorEmail  string   `json:"editor_email,omitempty"`
	VideoID      string   `json:"video_id,omitempty"`
	VideoTitle   string   `json:"video_title,omitempty"`
	Role         string   `json:"role,omitempty"`
	Message      string   `json:"message,omitempty"`
	YouTubeID    string   `json:"youtube_id,omitempty"`
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Sink is one delivery channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher hands each Event to a worker pool which delivers it to every
// sink. A nil pool delivers inline.
type Dispatcher struct {
	pool    *ants.Pool
	sinks   []Sink
	log     *zap.Logger
	timeout time.Duration
}

func NewDispatcher(pool *ants.Pool, log *zap.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{pool: pool, sinks: sinks, log: log, timeout: 30 * time.Second}
}

// Notify queues e. The caller's cancellation does not abort delivery.
func (d *Dispatcher) Notify(ctx context.Context, e Event) {
	if d == nil || len(e.To) == 0 {
		return
	}
	e.To = dedupe(e.To)
	base := context.WithoutCancel(ctx)

	job := func() { d.deliver(base, e) }
	if d.pool == nil {
		job()
		return
	}
	if err := d.pool.Submit(job); err != nil {
		metrics.NotificationsDropped.Inc()
		d.log.Warn("notification dropped",
			zap.String("kind", string(e.Kind)),
			zap.Strings("to", e.To),
			zap.Error(err))
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	for _, s := range d.sinks {
		sctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Deliver(sctx, e)
		cancel()
		if err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("sink", s.Name()),
				zap.String("kind", string(e.Kind)),
				zap.Strings("to", e.To),
				zap.Error(err))
		}
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
