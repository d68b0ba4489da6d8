// Package notify_test tests result delivery to subscribers.
package notify_test

import (
	"errors"
	"testing"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/autovid/voice-generator/internal/notify"
	"github.com/autovid/voice-generator/internal/subscription"
	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errChannelClosed = errors.New("channel closed")

// recordingChannel captures pushed payloads.
type recordingChannel struct {
	writeShouldFail bool
	pushed          []any
}

func (c *recordingChannel) WriteJSON(v any) error {
	if c.writeShouldFail {
		return errChannelClosed
	}

	c.pushed = append(c.pushed, v)

	return nil
}

func setupNotifier(t *testing.T) (*notify.PushNotifier, *subscription.Registry) {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "notify-test.log")
	require.NoError(t, err)

	registry := subscription.NewRegistry(testLogger)

	return notify.NewPushNotifier(registry, testLogger), registry
}

func TestNotify_DeliversToSubscriber(t *testing.T) {
	t.Parallel()

	notifier, registry := setupNotifier(t)
	channel := &recordingChannel{}
	registry.Subscribe("J1", channel)

	result := &core.JobResult{
		JobID: "J1",
		Segments: []core.SegmentResult{
			{Index: 0, Script: "Hi", Audio: "http://example/audio/voices/J1/0.mp3", Duration: 1.2},
		},
	}

	notifier.Notify(result)

	require.Len(t, channel.pushed, 1)
	assert.Equal(t, result, channel.pushed[0])
}

func TestNotify_NoSubscriberIsDiscardedQuietly(t *testing.T) {
	t.Parallel()

	notifier, _ := setupNotifier(t)

	// Must not panic or error: a result computed before any subscriber
	// connected is a normal outcome.
	notifier.Notify(&core.JobResult{JobID: "J-nobody", Segments: nil})
}

func TestNotify_WriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	notifier, registry := setupNotifier(t)
	channel := &recordingChannel{writeShouldFail: true}
	registry.Subscribe("J1", channel)

	notifier.Notify(&core.JobResult{JobID: "J1", Segments: nil})

	assert.Empty(t, channel.pushed)
}
