// internal/app/system/presence/presence.go
//
// Package presence tracks which identities have a live push stream open so
// notifications can be delivered immediately.
package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Message is one pushed notification.
type Message struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Registry maps an identity (email) to its open streams.
// An identity may have several streams (tabs, devices).
type Registry struct {
	mu      sync.RWMutex
	streams map[string]map[string]chan Message
}

func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]map[string]chan Message)}
}

// Register opens a stream for identity. The returned func removes it and
// closes the channel.
func (r *Registry) Register(identity string, buffer int) (<-chan Message, func()) {
	ch := make(chan Message, buffer)
	id := uuid.NewString()

	r.mu.Lock()
	if r.streams[identity] == nil {
		r.streams[identity] = make(map[string]chan Message)
	}
	r.streams[identity][id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.streams[identity], id)
			if len(r.streams[identity]) == 0 {
				delete(r.streams, identity)
			}
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Online reports whether identity has at least one open stream.
func (r *Registry) Online(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams[identity]) > 0
}

// Push delivers msg to every stream of identity without blocking. Streams
// whose buffer is full miss the message. Returns the number of deliveries.
func (r *Registry) Push(identity string, msg Message) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, ch := range r.streams[identity] {
		select {
		case ch <- msg:
			n++
		default:
		}
	}
	return n
}
