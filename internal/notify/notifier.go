// Package notify delivers finished job results to live subscribers.
package notify

import (
	"github.com/autovid/voice-generator/internal/core"
	"github.com/book-expert/logger"
)

// PushNotifier pushes job results over the subscriber channel registered
// for the job, if one exists. Delivery is fire-and-forget: the outcome
// never feeds back into message acknowledgement.
type PushNotifier struct {
	registry core.Registry
	log      *logger.Logger
}

// NewPushNotifier creates a notifier backed by the given registry.
func NewPushNotifier(registry core.Registry, log *logger.Logger) *PushNotifier {
	return &PushNotifier{
		registry: registry,
		log:      log,
	}
}

// Notify looks up the subscriber for the result's job and pushes the
// result. An absent subscriber is logged and the result discarded; there
// is no outbox for missed notifications.
func (n *PushNotifier) Notify(result *core.JobResult) {
	ch, ok := n.registry.Lookup(result.JobID)
	if !ok {
		n.log.Info("No client watching job %s, result discarded", result.JobID)

		return
	}

	err := ch.WriteJSON(result)
	if err != nil {
		n.log.Warn("Failed to push result for job %s: %v", result.JobID, err)

		return
	}

	n.log.Info("Delivered result for job %s (%d segments)", result.JobID, len(result.Segments))
}
