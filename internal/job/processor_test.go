// Package job_test tests per-job segment fan-out and result assembly.
package job_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/autovid/voice-generator/internal/job"
	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockSynthesis = errors.New("mock synthesis error")

// mockSynthesizer simulates per-segment synthesis with configurable
// delays and failures so completion order differs from input order.
type mockSynthesizer struct {
	mu          sync.Mutex
	delays      map[int]time.Duration
	failIndexes map[int]bool
	calls       int
}

func (m *mockSynthesizer) Synthesize(
	_ context.Context,
	jobID string,
	_ core.VoiceStyles,
	seg core.Segment,
) (core.SegmentResult, error) {
	m.mu.Lock()
	m.calls++
	delay := m.delays[seg.Index]
	fail := m.failIndexes[seg.Index]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if fail {
		return core.SegmentResult{}, &core.SegmentError{Index: seg.Index, Err: errMockSynthesis}
	}

	return core.SegmentResult{
		Index:    seg.Index,
		Script:   seg.Text,
		Audio:    fmt.Sprintf("http://localhost:8080/audio/voices/%s/%d.mp3", jobID, seg.Index),
		Duration: 1.0,
	}, nil
}

// recordingNotifier captures every delivered result.
type recordingNotifier struct {
	mu      sync.Mutex
	results []*core.JobResult
}

func (n *recordingNotifier) Notify(result *core.JobResult) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.results = append(n.results, result)
}

func setupProcessor(t *testing.T, synthesizer *mockSynthesizer, workers int) (*job.Processor, *recordingNotifier) {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "processor-test.log")
	require.NoError(t, err)

	notifier := &recordingNotifier{}

	return job.NewProcessor(synthesizer, notifier, workers, testLogger), notifier
}

func segments(n int) []core.Segment {
	segs := make([]core.Segment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, core.Segment{Index: i, Text: fmt.Sprintf("segment %d", i)})
	}

	return segs
}

func TestProcess_OrderPreservedUnderConcurrency(t *testing.T) {
	t.Parallel()

	// Earlier segments finish last; the result must still come back in
	// job order.
	synthesizer := &mockSynthesizer{
		delays: map[int]time.Duration{
			0: 60 * time.Millisecond,
			1: 30 * time.Millisecond,
			2: 0,
			3: 45 * time.Millisecond,
		},
	}
	processor, notifier := setupProcessor(t, synthesizer, 4)

	testJob := &core.Job{JobID: "J1", Segments: segments(4)}

	err := processor.Process(context.Background(), testJob)
	require.NoError(t, err)

	require.Len(t, notifier.results, 1)
	result := notifier.results[0]
	assert.Equal(t, "J1", result.JobID)
	require.Len(t, result.Segments, 4)

	for slot, segResult := range result.Segments {
		assert.Equal(t, slot, segResult.Index)
		assert.Equal(t, fmt.Sprintf("segment %d", slot), segResult.Script)
	}
}

func TestProcess_OrderFollowsJobSequenceNotIndex(t *testing.T) {
	t.Parallel()

	// Indexes are preserved values, not positions: a producer may enqueue
	// segments out of slot order and the result must follow the job's
	// sequence.
	synthesizer := &mockSynthesizer{}
	processor, notifier := setupProcessor(t, synthesizer, 2)

	testJob := &core.Job{
		JobID: "J1",
		Segments: []core.Segment{
			{Index: 5, Text: "five"},
			{Index: 2, Text: "two"},
		},
	}

	err := processor.Process(context.Background(), testJob)
	require.NoError(t, err)

	require.Len(t, notifier.results, 1)
	result := notifier.results[0]
	require.Len(t, result.Segments, 2)
	assert.Equal(t, 5, result.Segments[0].Index)
	assert.Equal(t, 2, result.Segments[1].Index)
}

func TestProcess_AnyFailureAbortsWholeJob(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{
		failIndexes: map[int]bool{1: true},
	}
	processor, notifier := setupProcessor(t, synthesizer, 2)

	testJob := &core.Job{JobID: "J1", Segments: segments(3)}

	err := processor.Process(context.Background(), testJob)
	require.Error(t, err)
	require.ErrorIs(t, err, errMockSynthesis)

	var segErr *core.SegmentError

	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, 1, segErr.Index)

	assert.Empty(t, notifier.results, "no partial result may ever be delivered")
}

func TestProcess_EmptySegments(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{}
	processor, notifier := setupProcessor(t, synthesizer, 2)

	err := processor.Process(context.Background(), &core.Job{JobID: "J1", Segments: nil})
	require.ErrorIs(t, err, core.ErrNoSegments)
	assert.Zero(t, synthesizer.calls)
	assert.Empty(t, notifier.results)
}

func TestProcess_SequentialWorkerStillOrdered(t *testing.T) {
	t.Parallel()

	synthesizer := &mockSynthesizer{}
	processor, notifier := setupProcessor(t, synthesizer, 1)

	testJob := &core.Job{JobID: "J1", Segments: segments(5)}

	err := processor.Process(context.Background(), testJob)
	require.NoError(t, err)

	require.Len(t, notifier.results, 1)
	require.Len(t, notifier.results[0].Segments, 5)

	for slot, segResult := range notifier.results[0].Segments {
		assert.Equal(t, slot, segResult.Index)
	}
}
