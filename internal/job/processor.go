// Package job drives per-segment synthesis for one queued job and
// assembles the ordered result.
package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/book-expert/logger"
)

// Processor turns one Job into one JobResult. Segments are synthesized
// concurrently up to a fixed worker count; the assembled result always
// follows the job's original segment order, whatever the completion order.
type Processor struct {
	synth    core.SegmentSynthesizer
	notifier core.Notifier
	workers  int
	log      *logger.Logger
}

// NewProcessor creates a Processor with the given segment concurrency.
func NewProcessor(
	synth core.SegmentSynthesizer,
	notifier core.Notifier,
	workers int,
	log *logger.Logger,
) *Processor {
	if workers < 1 {
		workers = 1
	}

	return &Processor{
		synth:    synth,
		notifier: notifier,
		workers:  workers,
		log:      log,
	}
}

// Process synthesizes every segment of the job and hands the complete
// result to the notifier. If any segment fails the whole job fails and
// nothing is notified: partial voice tracks are useless to the downstream
// video assembly. The caller owns acknowledgement of the broker message.
func (p *Processor) Process(ctx context.Context, j *core.Job) error {
	if len(j.Segments) == 0 {
		return fmt.Errorf("job %s: %w", j.JobID, core.ErrNoSegments)
	}

	results, err := p.synthesizeAll(ctx, j)
	if err != nil {
		return fmt.Errorf("job %s: %w", j.JobID, err)
	}

	// Fire-and-forget: delivery outcome never affects the caller's
	// acknowledgement decision.
	p.notifier.Notify(&core.JobResult{
		JobID:    j.JobID,
		Segments: results,
	})

	return nil
}

// synthesizeAll fans the segments out over a bounded worker pool and
// collects results by slot, preserving the job's segment order.
func (p *Processor) synthesizeAll(ctx context.Context, j *core.Job) ([]core.SegmentResult, error) {
	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		firstErr  error
	)

	results := make([]core.SegmentResult, len(j.Segments))
	workerPool := make(chan struct{}, p.workers)

	for slot, segment := range j.Segments {
		waitGroup.Add(1)

		go func(slot int, segment core.Segment) {
			defer waitGroup.Done()

			// Acquire worker slot to control concurrency
			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			result, err := p.synth.Synthesize(ctx, j.JobID, j.VoiceStyles, segment)
			if err != nil {
				mutex.Lock()

				if firstErr == nil {
					firstErr = err
				}

				mutex.Unlock()
				p.log.Error("Job %s segment %d failed: %v", j.JobID, segment.Index, err)

				return
			}

			mutex.Lock()
			results[slot] = result
			mutex.Unlock()
		}(slot, segment)
	}

	waitGroup.Wait()
	close(workerPool)

	if firstErr != nil {
		return nil, firstErr
	}

	return results, nil
}
