// Package subscription provides the thread-safe mapping from job IDs to
// live subscriber channels.
package subscription

import (
	"sync"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/book-expert/logger"
)

// Registry owns the job-to-channel mapping. It never closes a channel,
// only its own references; channel lifetime belongs to the transport layer.
type Registry struct {
	mu       sync.Mutex
	channels map[string]core.Channel
	log      *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		channels: make(map[string]core.Channel),
		log:      log,
	}
}

// Subscribe registers ch as the watcher of jobID. An existing entry for
// the same job is replaced: a reconnecting client re-subscribes and the
// stale channel must no longer receive that job's result.
func (r *Registry) Subscribe(jobID string, ch core.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels[jobID] = ch
	r.log.Info("Client subscribed to job %s", jobID)
}

// Unsubscribe removes every entry registered under ch. Removal is keyed by
// channel identity so a disconnect handler does not need to know which job
// the connection was watching.
func (r *Registry) Unsubscribe(ch core.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for jobID, existing := range r.channels {
		if existing == ch {
			delete(r.channels, jobID)
			r.log.Info("Client unsubscribed from job %s", jobID)
		}
	}
}

// Lookup returns the channel currently watching jobID. A miss is a normal
// outcome: the job may have finished before any subscriber connected.
func (r *Registry) Lookup(jobID string) (core.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[jobID]

	return ch, ok
}
