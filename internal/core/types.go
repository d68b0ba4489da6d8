// Package core defines the domain types and interfaces shared by the
// voice-generator components.
package core

import (
	"fmt"
	"time"
)

// VoiceStyles selects the synthesis voice for a whole job. It is immutable
// for the job's lifetime.
type VoiceStyles struct {
	Style    string `json:"style"`
	Gender   string `json:"gender"`
	Language string `json:"language"`
}

// Segment is one unit of text with its position index. The index travels
// through all asynchronous processing; it is not assumed to equal the
// segment's slot in the job's sequence.
type Segment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Job is the unit of work consumed from the durable queue.
type Job struct {
	JobID       string      `json:"job_id"`
	VoiceStyles VoiceStyles `json:"voice_styles"`
	Segments    []Segment   `json:"segments"`
}

// Validate checks the structural fields a producer must always supply.
// Violations are malformed-job errors: the message can never succeed and
// must be rejected without requeue.
func (j *Job) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("%w: missing job_id", ErrMalformedJob)
	}

	for slot, segment := range j.Segments {
		if segment.Index < 0 {
			return fmt.Errorf("%w: segment %d has negative index %d",
				ErrMalformedJob, slot, segment.Index)
		}

		if segment.Text == "" {
			return fmt.Errorf("%w: segment %d has empty text", ErrMalformedJob, slot)
		}
	}

	return nil
}

// SegmentResult is the output of synthesizing one segment.
type SegmentResult struct {
	Index    int     `json:"index"`
	Script   string  `json:"script"`
	Audio    string  `json:"audio"`
	Duration float64 `json:"duration"`
}

// JobResult is the aggregate pushed to a subscriber. Segments are in the
// originating job's segment order; partial aggregates are never built.
type JobResult struct {
	JobID    string          `json:"job_id"`
	Segments []SegmentResult `json:"segments"`
}

// VoiceRecord is one metadata row per stored audio artifact, keyed by
// (JobID, Index).
type VoiceRecord struct {
	JobID     string
	Index     int
	Type      string
	URL       string
	Duration  float64
	Format    string
	Size      int64
	CreatedAt time.Time
}

// UploadResult describes a stored audio object.
type UploadResult struct {
	URL    string
	Bytes  int64
	Format string
}
