// Package synth turns one job segment into a stored, recorded audio
// result by driving the synthesis provider, the audio store and the
// metadata repository.
package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/autovid/voice-generator/internal/core"
	"github.com/autovid/voice-generator/internal/voices"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
)

const (
	recordTypeGenerate = "Generate"

	// previewText is the fixed sentence synthesized for voice previews.
	previewText = "This is a preview of my voice. How do I sound?"
)

// ObjectKey returns the deterministic storage key for a segment's audio.
// A redelivered job regenerates the same key, so the newest upload
// replaces the previous artifact instead of accumulating orphans.
func ObjectKey(jobID string, index int) string {
	return fmt.Sprintf("voices/%s/%d.mp3", jobID, index)
}

// Synthesizer produces one SegmentResult per segment. It performs no
// internal retries; retry policy belongs to the consumer layer.
type Synthesizer struct {
	provider     core.SpeechProvider
	store        core.AudioStore
	repo         core.VoiceRepository
	speakingRate float64
	pitch        float64
	log          *logger.Logger
}

// New creates a Synthesizer. speakingRate and pitch apply to every
// provider call; they are service configuration, not job input.
func New(
	provider core.SpeechProvider,
	store core.AudioStore,
	repo core.VoiceRepository,
	speakingRate float64,
	pitch float64,
	log *logger.Logger,
) *Synthesizer {
	return &Synthesizer{
		provider:     provider,
		store:        store,
		repo:         repo,
		speakingRate: speakingRate,
		pitch:        pitch,
		log:          log,
	}
}

// Synthesize resolves the voice, calls the provider once for the segment,
// uploads the audio under the segment's deterministic key and upserts its
// metadata record. Every failure is surfaced as a SegmentError carrying
// the segment index.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	jobID string,
	styles core.VoiceStyles,
	seg core.Segment,
) (core.SegmentResult, error) {
	voice, err := voices.Resolve(styles.Gender, styles.Style, styles.Language)
	if err != nil {
		return core.SegmentResult{}, &core.SegmentError{Index: seg.Index, Err: err}
	}

	speech, err := s.provider.Synthesize(ctx, core.SpeechRequest{
		Text:         seg.Text,
		Voice:        voice,
		Language:     styles.Language,
		SpeakingRate: s.speakingRate,
		Pitch:        s.pitch,
	})
	if err != nil {
		return core.SegmentResult{}, &core.SegmentError{
			Index: seg.Index,
			Err:   fmt.Errorf("provider call failed: %w", err),
		}
	}

	upload, err := s.store.Upload(ctx, ObjectKey(jobID, seg.Index), speech.Audio)
	if err != nil {
		return core.SegmentResult{}, &core.SegmentError{
			Index: seg.Index,
			Err:   fmt.Errorf("audio upload failed: %w", err),
		}
	}

	record := core.VoiceRecord{
		JobID:     jobID,
		Index:     seg.Index,
		Type:      recordTypeGenerate,
		URL:       upload.URL,
		Duration:  speech.Duration,
		Format:    upload.Format,
		Size:      upload.Bytes,
		CreatedAt: time.Now(),
	}

	err = s.repo.SaveVoice(ctx, record)
	if err != nil {
		return core.SegmentResult{}, &core.SegmentError{
			Index: seg.Index,
			Err:   fmt.Errorf("metadata record failed: %w", err),
		}
	}

	s.log.Info("Synthesized segment %d of job %s (%d bytes, %.3fs)",
		seg.Index, jobID, upload.Bytes, speech.Duration)

	return core.SegmentResult{
		Index:    seg.Index,
		Script:   seg.Text,
		Audio:    upload.URL,
		Duration: speech.Duration,
	}, nil
}

// Preview synthesizes the fixed preview sentence with the requested voice,
// stores it under a one-off key and returns the sample URL. Previews are
// not recorded in the metadata store.
func (s *Synthesizer) Preview(ctx context.Context, styles core.VoiceStyles) (string, error) {
	voice, err := voices.Resolve(styles.Gender, styles.Style, styles.Language)
	if err != nil {
		return "", err
	}

	speech, err := s.provider.Synthesize(ctx, core.SpeechRequest{
		Text:         previewText,
		Voice:        voice,
		Language:     styles.Language,
		SpeakingRate: s.speakingRate,
		Pitch:        s.pitch,
	})
	if err != nil {
		return "", fmt.Errorf("preview synthesis failed: %w", err)
	}

	key := fmt.Sprintf("previews/%s.mp3", uuid.NewString())

	upload, err := s.store.Upload(ctx, key, speech.Audio)
	if err != nil {
		return "", fmt.Errorf("preview upload failed: %w", err)
	}

	return upload.URL, nil
}
