package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedJob indicates a queue message that cannot be decoded into a
	// valid job. It is rejected without requeue.
	ErrMalformedJob = errors.New("malformed job message")
	// ErrNoSegments indicates a job with an empty segment list.
	ErrNoSegments = errors.New("job has no segments")
	// ErrVoiceNotFound indicates that no catalog voice matches the requested
	// gender and style. This is a caller configuration error, never retried.
	ErrVoiceNotFound = errors.New("no voice matches the requested profile")
	// ErrStreamConfig indicates that the jobs stream already exists with
	// incompatible settings. Startup-fatal.
	ErrStreamConfig = errors.New("jobs stream exists with incompatible configuration")
)

// SegmentError reports a failed synthesis for one segment, carrying the
// segment index and the underlying cause.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err can never succeed on a later attempt, so
// retrying it only burns provider quota.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrMalformedJob) ||
		errors.Is(err, ErrNoSegments) ||
		errors.Is(err, ErrVoiceNotFound)
}
