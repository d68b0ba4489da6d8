package core

import (
	"context"
	"time"
)

// SpeechRequest is one synthesis call to the external provider.
type SpeechRequest struct {
	Text         string
	Voice        string
	Language     string
	SpeakingRate float64
	Pitch        float64
}

// SpeechResult is the provider's response: raw audio plus the
// provider-reported playback duration in seconds.
type SpeechResult struct {
	Audio    []byte
	Duration float64
}

// SpeechProvider defines the interface for the external text-to-speech
// provider.
type SpeechProvider interface {
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}

// AudioStore defines the interface for the audio blob store. Uploading to
// an existing key replaces the stored object.
type AudioStore interface {
	Upload(ctx context.Context, key string, data []byte) (*UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// VoiceRepository persists one metadata record per (job_id, index).
type VoiceRepository interface {
	SaveVoice(ctx context.Context, rec VoiceRecord) error
}

// Channel is a live subscriber connection. Implementations are compared by
// identity when entries are removed, so they must be pointer-shaped.
type Channel interface {
	WriteJSON(v any) error
}

// Registry maps job IDs to live subscriber channels.
type Registry interface {
	Subscribe(jobID string, ch Channel)
	Unsubscribe(ch Channel)
	Lookup(jobID string) (Channel, bool)
}

// Notifier delivers a finished job result to its subscriber, if any.
// Delivery is best-effort; a missing subscriber is a normal outcome.
type Notifier interface {
	Notify(result *JobResult)
}

// SegmentSynthesizer turns one segment into a stored, recorded result.
type SegmentSynthesizer interface {
	Synthesize(ctx context.Context, jobID string, styles VoiceStyles, seg Segment) (SegmentResult, error)
}

// JobProcessor turns one decoded job into one delivered result. It signals
// success or failure to the caller and never touches the broker message.
type JobProcessor interface {
	Process(ctx context.Context, job *Job) error
}

// RetryPolicy decides whether a failed processing attempt is tried again
// before the message is rejected, and how long to wait in between.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}
