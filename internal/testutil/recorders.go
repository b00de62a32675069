package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
)

// Notifications records every notify.Event it receives.
type Notifications struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *Notifications) Notify(_ context.Context, e notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

// Events returns a copy of the recorded events.
func (n *Notifications) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// OfKind returns the recorded events of kind k.
func (n *Notifications) OfKind(k notify.Kind) []notify.Event {
	var out []notify.Event
	for _, e := range n.Events() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// AuditTrail records every audit event it receives.
type AuditTrail struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *AuditTrail) Log(_ context.Context, e audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

// Types returns the recorded event types in order.
func (a *AuditTrail) Types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.EventType
	}
	return out
}

// Has reports whether an event of type eventType was recorded.
func (a *AuditTrail) Has(eventType string) bool {
	for _, t := range a.Types() {
		if t == eventType {
			return true
		}
	}
	return false
}
