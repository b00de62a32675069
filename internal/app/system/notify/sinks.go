// internal/app/system/notify/sinks.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/vidcollab/internal/app/system/mailer"
	"github.com/dalemusser/vidcollab/internal/app/system/presence"
)

// MailSink sends one email per recipient.
type MailSink struct {
	Mailer   *mailer.Mailer
	SiteName string
	BaseURL  string
}

func (m *MailSink) Name() string { return "mail" }

func (m *MailSink) Deliver(_ context.Context, e Event) error {
	if !m.Mailer.Enabled() {
		return nil
	}
	msg, ok := m.compose(e)
	if !ok {
		return nil
	}
	var errs []error
	for _, to := range e.To {
		msg.To = to
		if err := m.Mailer.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func (m *MailSink) compose(e Event) (mailer.Email, bool) {
	base := strings.TrimRight(m.BaseURL, "/")
	videoURL := base + "/videos/" + e.VideoID
	switch e.Kind {
	case KindTeamInvite:
		return mailer.TeamInviteEmail(m.SiteName, e.CreatorEmail, e.Role, base+"/dashboard"), true
	case KindTaskAssigned:
		return mailer.TaskAssignedEmail(m.SiteName, e.CreatorEmail, e.VideoTitle, e.Role, e.Message, base+"/tasks"), true
	case KindTaskCompleted:
		return mailer.TaskCompletedEmail(m.SiteName, e.EditorEmail, e.VideoTitle, e.Role, videoURL), true
	case KindVideoReady:
		return mailer.VideoReadyEmail(m.SiteName, e.Actor, e.VideoTitle, videoURL), true
	case KindVideoPublished:
		return mailer.VideoPublishedEmail(m.SiteName, e.VideoTitle, e.YouTubeID), true
	case KindNewComment:
		return mailer.NewCommentEmail(m.SiteName, e.Actor, e.VideoTitle, e.Message, videoURL), true
	}
	return mailer.Email{}, false
}

// Publisher is the event bus surface the BusSink needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// BusSink publishes the event once, routed by kind.
type BusSink struct {
	Publisher Publisher
}

func (b *BusSink) Name() string { return "bus" }

func (b *BusSink) Deliver(ctx context.Context, e Event) error {
	if b.Publisher == nil {
		return nil
	}
	return b.Publisher.Publish(ctx, string(e.Kind), e)
}

// PushSink delivers to recipients with an open stream.
type PushSink struct {
	Registry *presence.Registry
}

func (p *PushSink) Name() string { return "push" }

func (p *PushSink) Deliver(_ context.Context, e Event) error {
	for _, to := range e.To {
		p.Registry.Push(to, presence.Message{Kind: string(e.Kind), Payload: e})
	}
	return nil
}
