// Package tts provides the HTTP client for the external speech synthesis
// provider.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autovid/voice-generator/internal/core"
)

// API endpoints and headers.
const (
	apiSynthesize = "/v1/text:synthesize"

	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
)

// audioEncodingMP3 is the only encoding the pipeline stores and serves.
const audioEncodingMP3 = "MP3"

// Static errors.
var (
	ErrTextEmpty  = errors.New("text cannot be empty")
	ErrVoiceEmpty = errors.New("voice cannot be empty")
	ErrEmptyAudio = errors.New("provider returned empty audio content")
)

// GoogleClient calls a Google-style text:synthesize HTTP endpoint. The
// endpoint returns base64 audio plus the playback duration in seconds.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewGoogleClient creates a provider client. The baseURL should include
// protocol and host; the token is sent as a bearer credential on every
// request.
func NewGoogleClient(baseURL, token string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// synthesizeRequest is the JSON payload for one synthesis call.
type synthesizeRequest struct {
	Input       textInput   `json:"input"`
	Voice       voiceSelect `json:"voice"`
	AudioConfig audioConfig `json:"audioConfig"`
}

type textInput struct {
	Text string `json:"text"`
}

type voiceSelect struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type audioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate"`
	Pitch         float64 `json:"pitch"`
}

// synthesizeResponse is the provider's reply: base64 MP3 audio and the
// reported playback duration.
type synthesizeResponse struct {
	AudioContent string  `json:"audioContent"`
	Duration     float64 `json:"duration"`
}

// providerError is the structured error body the provider returns on
// non-success status codes.
type providerError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Synthesize sends one synthesis request and returns the decoded audio
// with its provider-reported duration. One call covers exactly one
// segment; batching is intentionally not supported so a single segment's
// failure cannot poison the others.
func (c *GoogleClient) Synthesize(ctx context.Context, req core.SpeechRequest) (*core.SpeechResult, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if req.Voice == "" {
		return nil, ErrVoiceEmpty
	}

	payload := synthesizeRequest{
		Input: textInput{Text: req.Text},
		Voice: voiceSelect{
			LanguageCode: req.Language,
			Name:         req.Voice,
		},
		AudioConfig: audioConfig{
			AudioEncoding: audioEncodingMP3,
			SpeakingRate:  req.SpeakingRate,
			Pitch:         req.Pitch,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiSynthesize,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAuthorization, "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach synthesis provider at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var decoded synthesizeResponse

	err = json.NewDecoder(resp.Body).Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode synthesis response: %w", err)
	}

	if decoded.AudioContent == "" {
		return nil, ErrEmptyAudio
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %w", err)
	}

	return &core.SpeechResult{
		Audio:    audio,
		Duration: decoded.Duration,
	}, nil
}

// parseErrorResponse decodes a structured provider error, falling back to
// the raw body so diagnostics are never lost.
func (c *GoogleClient) parseErrorResponse(resp *http.Response) error {
	var provErr providerError

	err := json.NewDecoder(resp.Body).Decode(&provErr)
	if err == nil && provErr.Error.Message != "" {
		return fmt.Errorf("provider error (%s): %s (status: %s)",
			resp.Status, provErr.Error.Message, provErr.Error.Status)
	}

	raw, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("provider returned non-OK status: %s, body: %s", resp.Status, string(raw))
}
