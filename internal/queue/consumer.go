// Package queue bridges the durable JetStream jobs queue to the job
// processor with explicit acknowledgement discipline.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
)

const (
	// fetchWait bounds each pull so the loop can observe shutdown promptly.
	fetchWait = 2 * time.Second

	// defaultAckWait applies when Options.AckWait is unset.
	defaultAckWait = 30 * time.Second
)

// Options configures the consumer's stream, delivery and timeout behavior.
type Options struct {
	StreamName   string
	Subject      string
	ConsumerName string
	// MaxInFlight bounds concurrent job processing across messages.
	MaxInFlight int
	// JobTimeout bounds one processing attempt. Zero means no deadline.
	JobTimeout time.Duration
	// AckWait is the broker's redelivery window for an in-flight
	// delivery. Progress heartbeats extend it while a job runs, so it
	// only needs to cover the gap between heartbeats, not a whole job.
	AckWait time.Duration
}

// Consumer pulls job messages from a durable JetStream work queue,
// dispatches them to the processor and acknowledges or rejects each
// message based on the outcome. Rejection never requeues: terminated
// deliveries are the dead-letter hook for operator replay.
type Consumer struct {
	js        nats.JetStreamContext
	opts      Options
	processor core.JobProcessor
	retry     core.RetryPolicy
	log       *logger.Logger
}

// NewConsumer creates a consumer over an established JetStream context.
func NewConsumer(
	js nats.JetStreamContext,
	opts Options,
	processor core.JobProcessor,
	retry core.RetryPolicy,
	log *logger.Logger,
) (*Consumer, error) {
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 1
	}

	if opts.AckWait <= 0 {
		opts.AckWait = defaultAckWait
	}

	return &Consumer{
		js:        js,
		opts:      opts,
		processor: processor,
		retry:     retry,
		log:       log,
	}, nil
}

// EnsureStream declares the durable jobs stream. Declaring is idempotent
// when the stream already exists with identical settings; an existing
// stream with different settings is a startup error.
func (c *Consumer) EnsureStream() error {
	_, err := c.js.AddStream(&nats.StreamConfig{
		Name:      c.opts.StreamName,
		Subjects:  []string{c.opts.Subject},
		Storage:   nats.FileStorage,
		Retention: nats.WorkQueuePolicy,
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("%w: stream %s", core.ErrStreamConfig, c.opts.StreamName)
	}

	return fmt.Errorf("failed to declare stream %s: %w", c.opts.StreamName, err)
}

// Run pulls messages until ctx is cancelled, then waits for in-flight
// jobs, drains the subscription and returns. No message is acknowledged
// after shutdown begins unless its processing already completed.
func (c *Consumer) Run(ctx context.Context) error {
	sub, err := c.js.PullSubscribe(
		c.opts.Subject,
		c.opts.ConsumerName,
		nats.BindStream(c.opts.StreamName),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.AckWait(c.opts.AckWait),
		nats.MaxAckPending(c.opts.MaxInFlight),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.opts.Subject, err)
	}

	var waitGroup sync.WaitGroup

	workerPool := make(chan struct{}, c.opts.MaxInFlight)

	for {
		select {
		case <-ctx.Done():
			waitGroup.Wait()

			drainErr := sub.Drain()
			if drainErr != nil {
				return fmt.Errorf("failed to drain subscription: %w", drainErr)
			}

			return nil
		default:
		}

		msgs, fetchErr := sub.Fetch(c.opts.MaxInFlight, nats.MaxWait(fetchWait))
		if fetchErr != nil {
			if errors.Is(fetchErr, nats.ErrTimeout) || errors.Is(fetchErr, context.DeadlineExceeded) {
				continue
			}

			if ctx.Err() != nil {
				continue
			}

			c.log.Warn("Fetch failed: %v", fetchErr)

			continue
		}

		for _, msg := range msgs {
			waitGroup.Add(1)

			// Acquire worker slot to control concurrency
			workerPool <- struct{}{}

			go func(msg *nats.Msg) {
				defer waitGroup.Done()

				defer func() { <-workerPool }()

				c.handleMessage(ctx, msg)
			}(msg)
		}
	}
}

// handleMessage decodes and processes one delivery. Decode failures and
// exhausted processing failures terminate the message; success
// acknowledges it. A shutdown that interrupts a retry backoff leaves the
// delivery unacknowledged so the broker redelivers it after restart.
func (c *Consumer) handleMessage(ctx context.Context, msg *nats.Msg) {
	decoded, err := decodeJob(msg.Data)
	if err != nil {
		c.log.Error("Rejecting undecodable job message: %v", err)
		c.terminate(msg)

		return
	}

	stopHeartbeat := c.startHeartbeat(msg)

	err = c.processWithRetry(ctx, decoded)

	stopHeartbeat()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Warn("Shutdown interrupted retries for job %s", decoded.JobID)

			return
		}

		c.log.Error("Rejecting job %s: %v", decoded.JobID, err)
		c.terminate(msg)

		return
	}

	ackErr := msg.Ack()
	if ackErr != nil {
		// The broker will redeliver; the deterministic artifact keys make
		// the rerun converge on the same stored results.
		c.log.Warn("Failed to acknowledge job %s: %v", decoded.JobID, ackErr)

		return
	}

	c.log.Info("Job %s processed and acknowledged", decoded.JobID)
}

// startHeartbeat keeps the delivery in flight while a job runs: without
// progress signals a job outliving the ack window would be redelivered
// and processed a second time concurrently. The returned stop function
// blocks until the heartbeat goroutine has exited.
func (c *Consumer) startHeartbeat(msg *nats.Msg) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)

		ticker := time.NewTicker(c.opts.AckWait / 3)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				progressErr := msg.InProgress()
				if progressErr != nil {
					c.log.Warn("Failed to extend ack window: %v", progressErr)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

// processWithRetry runs processing attempts until success, a permanent
// error, or policy exhaustion. Each attempt gets its own deadline derived
// from the background context: an attempt already in flight is allowed to
// finish (or time out) during shutdown. The backoff wait between attempts
// does observe shutdown, since a pending retry can safely be abandoned to
// broker redelivery.
func (c *Consumer) processWithRetry(ctx context.Context, decoded *core.Job) error {
	for attempt := 1; ; attempt++ {
		attemptCtx := context.Background()

		var cancel context.CancelFunc = func() {}

		if c.opts.JobTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(attemptCtx, c.opts.JobTimeout)
		}

		err := c.processor.Process(attemptCtx, decoded)

		cancel()

		if err == nil {
			return nil
		}

		if !c.retry.ShouldRetry(err, attempt) {
			return err
		}

		delay := c.retry.Backoff(attempt)
		c.log.Warn("Job %s attempt %d failed, retrying in %s: %v",
			decoded.JobID, attempt, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry wait interrupted: %w", ctx.Err())
		}
	}
}

func (c *Consumer) terminate(msg *nats.Msg) {
	err := msg.Term()
	if err != nil {
		c.log.Warn("Failed to terminate message: %v", err)
	}
}

// decodeJob parses and structurally validates a raw queue message. Any
// violation is a malformed-job error: the message can never succeed and
// must never reach the processor.
func decodeJob(data []byte) (*core.Job, error) {
	var decoded core.Job

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedJob, err)
	}

	err = decoded.Validate()
	if err != nil {
		return nil, err
	}

	return &decoded, nil
}
